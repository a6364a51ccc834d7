package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange outcomes
const (
	OutcomeReply    = "reply"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Recording outcomes
const (
	OutcomeTranscribed = "transcribed"
	OutcomeEmpty       = "empty"
	OutcomeDenied      = "denied"
	OutcomeFailed      = "failed"
)

// Metrics holds the client-side Prometheus metrics. All methods are safe on a
// nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	Exchanges        *prometheus.CounterVec
	ExchangeDuration prometheus.Histogram

	Recordings            *prometheus.CounterVec
	RecordedSeconds       prometheus.Histogram
	EncodedBytes          prometheus.Histogram
	TranscriptionDuration prometheus.Histogram
}

// NewMetrics creates the metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Exchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrchat_exchanges_total",
			Help: "Chat exchanges by outcome",
		}, []string{"outcome"}),
		ExchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrchat_exchange_duration_seconds",
			Help:    "Time from sending a message to appending the reply",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		Recordings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrchat_recordings_total",
			Help: "Voice recording sessions by outcome",
		}, []string{"outcome"}),
		RecordedSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrchat_recorded_audio_seconds",
			Help:    "Duration of decoded audio per recording",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 12),
		}),
		EncodedBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrchat_encoded_wav_bytes",
			Help:    "Size of the WAV container uploaded for transcription",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 10),
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrchat_transcription_duration_seconds",
			Help:    "Time spent waiting on the transcription endpoint",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveExchange(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Exchanges.WithLabelValues(outcome).Inc()
	m.ExchangeDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRecording(outcome string) {
	if m == nil {
		return
	}
	m.Recordings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEncoded(seconds float64, bytes int) {
	if m == nil {
		return
	}
	m.RecordedSeconds.Observe(seconds)
	m.EncodedBytes.Observe(float64(bytes))
}

func (m *Metrics) ObserveTranscription(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Observe(elapsed.Seconds())
}
