// Package metrics exports preview statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/ggmedia/lut"
)

// Metrics holds the collectors of one process on a private registry.
// It implements renderloop.Observer.
type Metrics struct {
	registry       *prometheus.Registry
	framesComposed prometheus.Counter
	framesReused   prometheus.Counter
	decodeFailures prometheus.Counter
	lutBuilds      *prometheus.CounterVec
	activeSessions prometheus.Gauge
	tickDuration   prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	framesComposed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ggmedia_frames_composed_total",
		Help: "Frames composed from a new primary frame or a changed scene",
	})
	framesReused := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ggmedia_frames_reused_total",
		Help: "Frames composed from the previous video frame because none was decoded",
	})
	decodeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ggmedia_decode_failures_total",
		Help: "Fatal video decode errors",
	})
	lutBuilds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ggmedia_lut_builds_total",
		Help: "Colour grading shader builds by outcome",
	}, []string{"result"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ggmedia_active_sessions",
		Help: "Composition sessions that are not disposed",
	})
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ggmedia_compose_seconds",
		Help:    "Time spent preparing and composing one frame",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	registry.MustRegister(
		framesComposed,
		framesReused,
		decodeFailures,
		lutBuilds,
		activeSessions,
		tickDuration,
	)

	return &Metrics{
		registry:       registry,
		framesComposed: framesComposed,
		framesReused:   framesReused,
		decodeFailures: decodeFailures,
		lutBuilds:      lutBuilds,
		activeSessions: activeSessions,
		tickDuration:   tickDuration,
	}
}

// FrameComposed counts a composed frame and records its duration.
func (m *Metrics) FrameComposed(d time.Duration) {
	m.framesComposed.Inc()
	m.tickDuration.Observe(d.Seconds())
}

// FrameReused counts a frame composed from a stale video frame.
func (m *Metrics) FrameReused() {
	m.framesReused.Inc()
}

// DecodeFailed counts a fatal decode error.
func (m *Metrics) DecodeFailed(error) {
	m.decodeFailures.Inc()
}

// SessionStarted increments the active sessions gauge.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the active sessions gauge.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// LUTObserver returns a lut.Observer counting builds by outcome.
func (m *Metrics) LUTObserver() lut.Observer {
	return func(_ lut.Filter, _ time.Duration, err error) {
		if err != nil {
			m.lutBuilds.WithLabelValues("failure").Inc()
			return
		}
		m.lutBuilds.WithLabelValues("success").Inc()
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
