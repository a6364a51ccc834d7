//go:build !voice

package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phildougherty/hrchat/internal/audio"
)

// errNotCompiled is what the stub device reports in place of a microphone
var errNotCompiled = errors.New("voice features not compiled in - build with -tags voice")

// DeviceConfig selects the capture format requested from PortAudio
type DeviceConfig struct {
	SampleRate  int
	Channels    int
	FrameLength int
}

type stubDevice struct{}

// NewDevice returns a device whose Open always fails (stub)
func NewDevice(DeviceConfig) Device {
	return stubDevice{}
}

func (stubDevice) Open(context.Context, func(audio.Chunk)) (Capture, error) {
	return nil, errNotCompiled
}

// CheckVoiceSystem reports that capture support is missing (stub)
func CheckVoiceSystem(cfg DeviceConfig) string {
	var report strings.Builder
	report.WriteString("Voice System Check\n")
	report.WriteString("====================\n\n")
	report.WriteString(fmt.Sprintf("  Sample rate: %d Hz, channels: %d\n", cfg.SampleRate, cfg.Channels))
	report.WriteString("  Audio System: " + errNotCompiled.Error() + "\n")
	return report.String()
}
