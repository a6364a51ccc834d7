package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete hrchat configuration
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Voice     VoiceConfig     `yaml:"voice"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	DevServer DevServerConfig `yaml:"dev_server"`
}

// BackendConfig describes the remote HR assistant
type BackendConfig struct {
	URL        string        `yaml:"url"`
	ChatPath   string        `yaml:"chat_path"`
	SpeechPath string        `yaml:"speech_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// VoiceConfig controls microphone capture
type VoiceConfig struct {
	Enabled      bool          `yaml:"enabled"`
	SampleRate   int           `yaml:"sample_rate"`
	Channels     int           `yaml:"channels"`
	FrameLength  int           `yaml:"frame_length"`
	MaxRecording time.Duration `yaml:"max_recording"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type DevServerConfig struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

// Default returns the configuration used when no file or environment overrides exist
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:        DefaultBackendURL,
			ChatPath:   DefaultChatPath,
			SpeechPath: DefaultSpeechPath,
			Timeout:    DefaultHTTPTimeout,
		},
		Voice: VoiceConfig{
			Enabled:      true,
			SampleRate:   DefaultCaptureSampleRate,
			Channels:     DefaultCaptureChannels,
			FrameLength:  DefaultFrameLength,
			MaxRecording: DefaultMaxRecording,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			File:   DefaultTUILogFile,
		},
		DevServer: DevServerConfig{
			Addr:          DefaultDevServerAddr,
			AllowedOrigin: DefaultAllowedOrigin,
		},
	}
}

// LoadEnv loads a .env file from the working directory if one exists
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from HRCHAT_* environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("HRCHAT_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("HRCHAT_BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HRCHAT_BACKEND_TIMEOUT %q: %w", v, err)
		}
		c.Backend.Timeout = d
	}
	if v := os.Getenv("HRCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HRCHAT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("HRCHAT_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("HRCHAT_VOICE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HRCHAT_VOICE_ENABLED %q: %w", v, err)
		}
		c.Voice.Enabled = enabled
	}
	if v := os.Getenv("HRCHAT_VOICE_SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HRCHAT_VOICE_SAMPLE_RATE %q: %w", v, err)
		}
		c.Voice.SampleRate = rate
	}
	if v := os.Getenv("HRCHAT_VOICE_MAX_RECORDING"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HRCHAT_VOICE_MAX_RECORDING %q: %w", v, err)
		}
		c.Voice.MaxRecording = d
	}
	return nil
}

// fillDefaults restores defaults for fields a config file left blank
func (c *Config) fillDefaults() {
	if c.Backend.ChatPath == "" {
		c.Backend.ChatPath = DefaultChatPath
	}
	if c.Backend.SpeechPath == "" {
		c.Backend.SpeechPath = DefaultSpeechPath
	}
	if c.Voice.SampleRate == 0 {
		c.Voice.SampleRate = DefaultCaptureSampleRate
	}
	if c.Voice.Channels == 0 {
		c.Voice.Channels = DefaultCaptureChannels
	}
	if c.Voice.FrameLength == 0 {
		c.Voice.FrameLength = DefaultFrameLength
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url %q must be an absolute http(s) URL", c.Backend.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url %q must use http or https", c.Backend.URL)
	}
	for _, p := range []string{c.Backend.ChatPath, c.Backend.SpeechPath} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("endpoint path %q must start with /", p)
		}
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	if c.Voice.SampleRate < 8000 {
		return fmt.Errorf("voice sample_rate %d is below 8000 Hz", c.Voice.SampleRate)
	}
	if c.Voice.Channels < 1 || c.Voice.Channels > 2 {
		return fmt.Errorf("voice channels must be 1 or 2, got %d", c.Voice.Channels)
	}
	if c.Voice.MaxRecording < 0 {
		return fmt.Errorf("voice max_recording must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
