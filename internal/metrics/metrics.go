// Package metrics exports frame and card counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eip-explainer/internal/domain"
)

const namespace = "eip_explainer"

// Collector is safe for concurrent use. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	transitions       *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec
	images            *prometheus.CounterVec
	imageLatency      prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "transitions_total",
			Help:      "Frame callbacks by incoming stage and outcome",
		},
		[]string{"from_stage", "outcome"},
	)
	c.transitionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "transition_seconds",
			Help:      "Frame callback latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)
	c.images = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "og",
			Name:      "renders_total",
			Help:      "Card renders by result",
		},
		[]string{"result"},
	)
	c.imageLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "og",
			Name:      "render_seconds",
			Help:      "Card render latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	c.registry.MustRegister(c.transitions, c.transitionLatency, c.images, c.imageLatency)
	return c
}

// ObserveTransition records one frame callback. from is "none" when the
// caller sent no state.
func (c *Collector) ObserveTransition(from string, outcome domain.Outcome, d time.Duration) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(from, string(outcome)).Inc()
	c.transitionLatency.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// ObserveImage records one card render.
func (c *Collector) ObserveImage(ok bool, d time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.images.WithLabelValues(result).Inc()
	c.imageLatency.Observe(d.Seconds())
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
