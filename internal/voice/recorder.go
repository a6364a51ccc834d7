// Package voice captures a spoken message from the microphone, encodes it as
// a 16 kHz mono WAV and hands the transcript to the chat session.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/phildougherty/hrchat/internal/audio"
	"github.com/phildougherty/hrchat/internal/metrics"
)

// State is the recorder's position in a recording session
type State int

const (
	Idle State = iota
	Recording
	Stopping
	Decoding
	Encoding
	Transmitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	case Decoding:
		return "decoding"
	case Encoding:
		return "encoding"
	case Transmitting:
		return "transmitting"
	default:
		return "unknown"
	}
}

var (
	// ErrMicrophoneDenied is returned when the capture device cannot be opened
	ErrMicrophoneDenied = errors.New("microphone access denied")
	// ErrEmptyCapture is returned when a session stopped before any audio arrived
	ErrEmptyCapture = errors.New("no audio captured")
	// ErrBusy is returned by Start while a session is already running
	ErrBusy = errors.New("recording already in progress")
	// ErrTranscription wraps failures of the speech-to-text request
	ErrTranscription = errors.New("transcription failed")
)

// Capture is an open input stream. Close stops the stream and releases the device.
type Capture interface {
	Format() audio.Format
	Close() error
}

// Device opens capture streams. onChunk may be called from another goroutine
// and must not retain the slice after returning.
type Device interface {
	Open(ctx context.Context, onChunk func(audio.Chunk)) (Capture, error)
}

// Transcriber turns an encoded WAV recording into text
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Delegate receives the session's UI flags and the final transcript
type Delegate interface {
	SetListening(listening bool)
	SetProcessing(processing bool)
	Submit(ctx context.Context, text string)
}

// Config tunes a Recorder
type Config struct {
	// MaxDuration stops a recording automatically; zero disables the ceiling
	MaxDuration time.Duration
	// TargetRate is the sample rate recordings are decoded to
	TargetRate int
}

// Recorder drives one recording session at a time through
// Idle → Recording → Stopping → Decoding → Encoding → Transmitting → Idle.
type Recorder struct {
	device      Device
	transcriber Transcriber
	delegate    Delegate
	config      Config
	log         logr.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	state   State
	stop    chan struct{}
	stopped bool
	onState func(State)
}

// NewRecorder wires a recorder to its device, transcription service and delegate
func NewRecorder(device Device, transcriber Transcriber, delegate Delegate, cfg Config, log logr.Logger, m *metrics.Metrics) *Recorder {
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = audio.TargetSampleRate
	}
	return &Recorder{
		device:      device,
		transcriber: transcriber,
		delegate:    delegate,
		config:      cfg,
		log:         log.WithName("voice"),
		metrics:     m,
	}
}

// OnState registers a callback invoked after every state transition
func (r *Recorder) OnState(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onState = fn
}

// State returns the current state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	fn := r.onState
	r.mu.Unlock()

	r.log.V(1).Info("state changed", "state", s.String())
	if fn != nil {
		fn(s)
	}
}

// begin claims the recorder for a new session
func (r *Recorder) begin() (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return nil, ErrBusy
	}
	r.state = Recording
	r.stop = make(chan struct{})
	r.stopped = false
	return r.stop, nil
}

// Start launches a recording session in the background
func (r *Recorder) Start(ctx context.Context) error {
	stop, err := r.begin()
	if err != nil {
		return err
	}
	go func() {
		if err := r.run(ctx, stop); err != nil {
			r.log.V(1).Info("recording session ended", "reason", err.Error())
		}
	}()
	return nil
}

// Record runs one recording session to completion
func (r *Recorder) Record(ctx context.Context) error {
	stop, err := r.begin()
	if err != nil {
		return err
	}
	return r.run(ctx, stop)
}

// Stop ends the current recording early. It is a no-op outside Recording.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Recording || r.stopped {
		return
	}
	r.stopped = true
	close(r.stop)
}

// Toggle starts a session when idle and stops it while recording
func (r *Recorder) Toggle(ctx context.Context) error {
	switch r.State() {
	case Idle:
		return r.Start(ctx)
	case Recording:
		r.Stop()
		return nil
	default:
		return ErrBusy
	}
}

func (r *Recorder) run(ctx context.Context, stop <-chan struct{}) (err error) {
	defer r.setState(Idle)

	var (
		chunksMu sync.Mutex
		chunks   []audio.Chunk
	)
	capture, err := r.device.Open(ctx, func(c audio.Chunk) {
		buf := make(audio.Chunk, len(c))
		copy(buf, c)
		chunksMu.Lock()
		chunks = append(chunks, buf)
		chunksMu.Unlock()
	})
	if err != nil {
		r.log.Error(err, "failed to open microphone")
		r.metrics.ObserveRecording(metrics.OutcomeDenied)
		return fmt.Errorf("%w: %v", ErrMicrophoneDenied, err)
	}

	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			if cerr := capture.Close(); cerr != nil {
				r.log.Error(cerr, "failed to release microphone")
			}
		})
	}
	defer release()

	r.setState(Recording)
	r.delegate.SetListening(true)
	r.log.Info("recording started", "maxDuration", r.config.MaxDuration)

	var ceiling <-chan time.Time
	if r.config.MaxDuration > 0 {
		timer := time.NewTimer(r.config.MaxDuration)
		defer timer.Stop()
		ceiling = timer.C
	}

	select {
	case <-stop:
	case <-ceiling:
		r.log.Info("recording reached maximum duration")
	case <-ctx.Done():
	}

	r.setState(Stopping)
	r.delegate.SetListening(false)
	release()

	chunksMu.Lock()
	captured := chunks
	chunks = nil
	chunksMu.Unlock()

	if audio.TotalSamples(captured) == 0 {
		r.log.Info("recording stopped with no audio")
		r.metrics.ObserveRecording(metrics.OutcomeEmpty)
		return ErrEmptyCapture
	}

	r.setState(Decoding)
	samples, err := audio.Decode(captured, capture.Format(), r.config.TargetRate)
	if err != nil {
		r.log.Error(err, "failed to decode recording")
		r.metrics.ObserveRecording(metrics.OutcomeFailed)
		return fmt.Errorf("failed to decode recording: %w", err)
	}
	// a trailing partial frame decodes to nothing
	if len(samples) == 0 {
		r.log.Info("recording held no complete frame")
		r.metrics.ObserveRecording(metrics.OutcomeEmpty)
		return ErrEmptyCapture
	}

	r.setState(Encoding)
	wav := audio.EncodeWAV(samples, r.config.TargetRate)
	seconds := audio.Duration(len(samples), r.config.TargetRate).Seconds()
	r.metrics.ObserveEncoded(seconds, len(wav))

	r.setState(Transmitting)
	text, err := r.transcribe(ctx, wav)
	if err != nil {
		r.log.Error(err, "speech-to-text request failed", "bytes", len(wav))
		r.metrics.ObserveRecording(metrics.OutcomeFailed)
		return fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	r.metrics.ObserveRecording(metrics.OutcomeTranscribed)
	r.log.Info("recording transcribed", "seconds", seconds, "chars", len(text))
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r.delegate.Submit(ctx, text)
	return nil
}

// transcribe holds the processing flag only for the duration of the upload
func (r *Recorder) transcribe(ctx context.Context, wav []byte) (string, error) {
	r.delegate.SetProcessing(true)
	defer r.delegate.SetProcessing(false)

	start := time.Now()
	text, err := r.transcriber.Transcribe(ctx, wav)
	r.metrics.ObserveTranscription(time.Since(start))
	return text, err
}
