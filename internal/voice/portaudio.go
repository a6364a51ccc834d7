//go:build voice

package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/phildougherty/hrchat/internal/audio"
)

// DeviceConfig selects the capture format requested from PortAudio
type DeviceConfig struct {
	SampleRate  int
	Channels    int
	FrameLength int
}

// PortAudioDevice records from the system's default input device
type PortAudioDevice struct {
	config DeviceConfig
}

// NewDevice returns the PortAudio capture device
func NewDevice(cfg DeviceConfig) Device {
	return &PortAudioDevice{config: cfg}
}

type portAudioCapture struct {
	stream    *portaudio.Stream
	format    audio.Format
	closeOnce sync.Once
	closeErr  error
}

// Open initializes PortAudio and starts streaming from the default input
func (d *PortAudioDevice) Open(ctx context.Context, onChunk func(audio.Chunk)) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	inputDevice, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to get input device: %w", err)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inputDevice,
			Channels: d.config.Channels,
			Latency:  inputDevice.DefaultLowInputLatency,
		},
		SampleRate:      float64(d.config.SampleRate),
		FramesPerBuffer: d.config.FrameLength,
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		onChunk(audio.Chunk(in))
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open recording stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start recording: %w", err)
	}

	return &portAudioCapture{
		stream: stream,
		format: audio.Format{SampleRate: d.config.SampleRate, Channels: d.config.Channels},
	}, nil
}

func (c *portAudioCapture) Format() audio.Format {
	return c.format
}

func (c *portAudioCapture) Close() error {
	c.closeOnce.Do(func() {
		if err := c.stream.Stop(); err != nil {
			c.closeErr = fmt.Errorf("failed to stop stream: %w", err)
		}
		if err := c.stream.Close(); err != nil && c.closeErr == nil {
			c.closeErr = fmt.Errorf("failed to close stream: %w", err)
		}
		portaudio.Terminate()
	})
	return c.closeErr
}

// CheckVoiceSystem reports the capture configuration and the input devices PortAudio can see
func CheckVoiceSystem(cfg DeviceConfig) string {
	var report strings.Builder

	report.WriteString("Voice System Check\n")
	report.WriteString("====================\n\n")

	report.WriteString("Capture Configuration:\n")
	report.WriteString(fmt.Sprintf("  Sample rate: %d Hz\n", cfg.SampleRate))
	report.WriteString(fmt.Sprintf("  Channels: %d\n", cfg.Channels))
	report.WriteString(fmt.Sprintf("  Frames per buffer: %d\n", cfg.FrameLength))
	report.WriteString(fmt.Sprintf("  Upload format: %d Hz mono 16-bit PCM WAV\n\n", audio.TargetSampleRate))

	report.WriteString("Audio System (PortAudio):\n")
	if err := portaudio.Initialize(); err != nil {
		report.WriteString(fmt.Sprintf("  PortAudio: initialization failed: %v\n", err))
		return report.String()
	}
	defer portaudio.Terminate()
	report.WriteString(fmt.Sprintf("  PortAudio: %s\n", portaudio.VersionText()))

	if input, err := portaudio.DefaultInputDevice(); err != nil {
		report.WriteString(fmt.Sprintf("  Default input: unavailable (%v)\n", err))
	} else {
		report.WriteString(fmt.Sprintf("  Default input: %s (%d channels, %.0f Hz)\n",
			input.Name, input.MaxInputChannels, input.DefaultSampleRate))
	}

	devices, err := portaudio.Devices()
	if err != nil {
		report.WriteString(fmt.Sprintf("  Devices: failed to list (%v)\n", err))
		return report.String()
	}
	report.WriteString("  Input devices:\n")
	found := 0
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		found++
		report.WriteString(fmt.Sprintf("    - %s\n", dev.Name))
	}
	if found == 0 {
		report.WriteString("    (none)\n")
	}

	return report.String()
}
