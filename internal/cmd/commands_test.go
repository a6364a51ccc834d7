package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phildougherty/hrchat/internal/audio"
	"github.com/phildougherty/hrchat/internal/devserver"
	"github.com/phildougherty/hrchat/internal/voice"
)

// execute runs the root command with args and returns its stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HRCHAT_BACKEND_URL", "")
	t.Setenv("HRCHAT_LOG_LEVEL", "ERROR")

	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSendCommand(t *testing.T) {
	server := httptest.NewServer(devserver.New(devserver.Echo{}, "", logr.Discard()))
	defer server.Close()

	out, err := execute(t, "", "send", "-b", server.URL, "How", "many", "vacation", "days?")
	require.NoError(t, err)
	assert.Equal(t, "You said: How many vacation days?\n", out)
}

func TestSendCommand_ServerDown(t *testing.T) {
	server := httptest.NewServer(nil)
	url := server.URL
	server.Close()

	out, err := execute(t, "", "send", "-b", url, "Hello")
	require.NoError(t, err, "exchange failures are reported in the reply")
	assert.Equal(t, "Sorry, there was an error processing your request.\n", out)
}

func TestSendCommand_RequiresText(t *testing.T) {
	_, err := execute(t, "", "send")
	assert.Error(t, err)

	_, err = execute(t, "", "send", "   ")
	assert.Error(t, err)
}

func TestChatCommand_SimpleMode(t *testing.T) {
	server := httptest.NewServer(devserver.New(devserver.Echo{}, "", logr.Discard()))
	defer server.Close()

	out, err := execute(t, "Hello\n/quit\n", "chat", "--simple", "-b", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome! How can I assist you today?")
	assert.Contains(t, out, "You said: Hello")
}

func writeFloat32(t *testing.T, samples []float32) string {
	t.Helper()
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	path := filepath.Join(t.TempDir(), "capture.f32")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestWavEncodeAndInfo(t *testing.T) {
	// 0.1 s of 48 kHz stereo
	raw := make([]float32, 4800*2)
	for i := range raw {
		raw[i] = 0.25
	}
	in := writeFloat32(t, raw)
	outPath := filepath.Join(t.TempDir(), "recording.wav")

	out, err := execute(t, "", "wav", "encode", "--rate", "48000", "--channels", "2", in, outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1600 samples")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Len(t, data, audio.HeaderSize+2*1600)

	out, err = execute(t, "", "wav", "info", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample rate:     16000 Hz")
	assert.Contains(t, out, "Channels:        1")
	assert.Contains(t, out, "Duration:        100ms")

	out, err = execute(t, "", "wav", "info", "--json", outPath)
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, float64(1600), info["num_samples"])
}

func TestWavEncode_BadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.f32")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := execute(t, "", "wav", "encode", path, filepath.Join(t.TempDir(), "out.wav"))
	assert.Error(t, err)

	_, err = execute(t, "", "wav", "info", path)
	assert.Error(t, err)
}

func TestVoiceCheckCommand(t *testing.T) {
	out, err := execute(t, "", "voice-check")
	require.NoError(t, err)
	assert.Contains(t, out, "Voice System Check")
	assert.Contains(t, out, "/speech-to-text")
}

func TestListenCommand_VoiceDisabled(t *testing.T) {
	t.Setenv("HRCHAT_VOICE_ENABLED", "false")
	_, err := execute(t, "", "listen")
	assert.Error(t, err)
}

type stubCapture struct{ closed bool }

func (c *stubCapture) Format() audio.Format {
	return audio.Format{SampleRate: 48000, Channels: 1}
}

func (c *stubCapture) Close() error {
	c.closed = true
	return nil
}

// stubMicrophone delivers its samples as soon as it is opened
type stubMicrophone struct {
	samples audio.Chunk
	capture *stubCapture
}

func (d *stubMicrophone) Open(_ context.Context, onChunk func(audio.Chunk)) (voice.Capture, error) {
	if len(d.samples) > 0 {
		onChunk(d.samples)
	}
	return d.capture, nil
}

func useMicrophone(t *testing.T, device voice.Device) {
	t.Helper()
	t.Setenv("HRCHAT_VOICE_ENABLED", "true")
	t.Setenv("HRCHAT_VOICE_MAX_RECORDING", "20ms")
	captureDevice = device
	t.Cleanup(func() { captureDevice = nil })
}

func TestListenCommand_TranscriptAndReply(t *testing.T) {
	server := httptest.NewServer(devserver.New(devserver.Echo{}, "", logr.Discard()))
	defer server.Close()

	tone := make(audio.Chunk, 48000)
	for i := range tone {
		tone[i] = 0.4
	}
	mic := &stubMicrophone{samples: tone, capture: &stubCapture{}}
	useMicrophone(t, mic)

	out, err := execute(t, "", "listen", "-b", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Recording... press Enter to stop")
	assert.Contains(t, out, "User: I recorded 1.0 seconds of audio\n")
	assert.Contains(t, out, "HR Agent: You said: I recorded 1.0 seconds of audio\n")
	assert.True(t, mic.capture.closed, "microphone released")
}

func TestListenCommand_EmptyCapture(t *testing.T) {
	server := httptest.NewServer(devserver.New(devserver.Echo{}, "", logr.Discard()))
	defer server.Close()

	mic := &stubMicrophone{capture: &stubCapture{}}
	useMicrophone(t, mic)

	out, err := execute(t, "", "listen", "-b", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No audio captured.")
	assert.NotContains(t, out, "HR Agent:")
	assert.True(t, mic.capture.closed)
}
