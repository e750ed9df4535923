package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded in artlens_requests_total.
const (
	OutcomeCacheHit  = "cache_hit"
	OutcomeTransport = "transport_error"
	OutcomeAuth      = "auth_error"
)

// Metrics tracks request counts and latency on a private registry so the CLI
// never exports process-wide collectors it did not ask for.
type Metrics struct {
	Registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artlens_requests_total",
			Help: "API requests by service, method and outcome.",
		}, []string{"service", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artlens_request_duration_seconds",
			Help:    "Latency of API requests that reached the network.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}
	m.Registry.MustRegister(m.requests, m.duration)
	return m
}

// WriteFile writes the current values in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) observe(service, method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, method, outcome).Inc()
	if outcome != OutcomeCacheHit && outcome != OutcomeAuth {
		m.duration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

// statusOutcome buckets a status code as "2xx", "4xx" and so on.
func statusOutcome(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
