package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"github.com/phildougherty/hrchat/internal/audio"
	"github.com/phildougherty/hrchat/internal/backend"
	"github.com/phildougherty/hrchat/internal/chat"
	"github.com/phildougherty/hrchat/internal/config"
	"github.com/phildougherty/hrchat/internal/logging"
	"github.com/phildougherty/hrchat/internal/metrics"
	"github.com/phildougherty/hrchat/internal/voice"
)

// Options are the command-line overrides applied on top of the config file
type Options struct {
	ConfigFile string
	BackendURL string
	Verbose    bool
	// Device replaces the PortAudio capture device, mainly for tests
	Device voice.Device
}

// App represents the main application state
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
	Backend  *backend.Client
	Session  *chat.Session
	Recorder *voice.Recorder

	configFile string
	log        logr.Logger
	logFile    *os.File
}

// New creates a new App instance with all necessary components
func New(opts Options) (*App, error) {
	config.LoadEnv()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.BackendURL != "" {
		cfg.Backend.URL = opts.BackendURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = logging.DEBUG.String()
	}
	logger := logging.NewLogger(level)
	logger.SetJSONFormat(cfg.Logging.Format == "json")
	log := logger.GetLogr()

	m := metrics.NewMetrics()
	client := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.URL,
		ChatPath:   cfg.Backend.ChatPath,
		SpeechPath: cfg.Backend.SpeechPath,
		Timeout:    cfg.Backend.Timeout,
		Log:        log,
	})
	session := chat.NewSession(client, log, m)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Backend:    client,
		Session:    session,
		configFile: opts.ConfigFile,
		log:        log.WithName("app"),
	}

	if cfg.Voice.Enabled {
		device := opts.Device
		if device == nil {
			device = voice.NewDevice(voice.DeviceConfig{
				SampleRate:  cfg.Voice.SampleRate,
				Channels:    cfg.Voice.Channels,
				FrameLength: cfg.Voice.FrameLength,
			})
		}
		a.Recorder = voice.NewRecorder(device, client, session, voice.Config{
			MaxDuration: cfg.Voice.MaxRecording,
			TargetRate:  audio.TargetSampleRate,
		}, log, m)
	}

	a.log.V(1).Info("application initialized",
		"backend", cfg.Backend.URL,
		"session", client.SessionID(),
		"voice", cfg.Voice.Enabled)
	return a, nil
}

// Voice returns the recorder as a UI control, or nil when voice is disabled
func (a *App) Voice() chat.VoiceControl {
	if a.Recorder == nil {
		return nil
	}
	return a.Recorder
}

// LogToFile redirects logging to path so it does not draw over the full-screen UI
func (a *App) LogToFile(path string) error {
	if path == "" {
		a.Logger.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	a.Logger.SetOutput(f)
	a.logFile = f
	return nil
}

// WatchConfig reloads the config file on change and repoints the backend client
func (a *App) WatchConfig(ctx context.Context) error {
	if a.configFile == "" {
		return nil
	}
	return config.Watch(ctx, a.configFile, func(cfg *config.Config) {
		if cfg.Backend.URL == a.Backend.BaseURL() {
			return
		}
		a.log.Info("backend changed", "from", a.Backend.BaseURL(), "to", cfg.Backend.URL)
		a.Backend.SetBaseURL(cfg.Backend.URL)
	}, func(err error) {
		a.log.Error(err, "config reload failed")
	})
}

// ServeMetrics exposes the Prometheus registry on addr until ctx is done
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	r := mux.NewRouter()
	r.Handle("/metrics", a.Metrics.Handler()).Methods(http.MethodGet)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Close releases the log file, if any
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	a.Logger.SetOutput(os.Stderr)
	err := a.logFile.Close()
	a.logFile = nil
	return err
}
