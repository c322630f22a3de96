package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records outbound API request metadata.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewRequestMetrics registers the request metrics on the provided
// registerer. A nil registerer yields an inert instance.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_request_duration_seconds",
		Help:    "Duration of outbound API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_request_outcomes_total",
		Help: "Outbound API request outcomes by result kind.",
	}, []string{"method", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &RequestMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records the duration of a request.
func (m *RequestMetrics) ObserveDuration(method string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for the given result kind
// ("success" or an error kind).
func (m *RequestMetrics) IncOutcome(method, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
