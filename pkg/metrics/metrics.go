package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the API.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TokensIssued        prometheus.Counter
	TokenRejections     *prometheus.CounterVec
	SanitizeRejections  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Histogram of HTTP request latency",
				ConstLabels: labels,
				Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		TokensIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "auth_tokens_issued_total",
				Help:        "Total number of identity tokens issued",
				ConstLabels: labels,
			},
		),
		TokenRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_token_rejections_total",
				Help:        "Requests rejected by token verification",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		SanitizeRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "sanitize_rejections_total",
				Help:        "Requests rejected before reaching a handler by the sanitizer",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokensIssued,
		m.TokenRejections,
		m.SanitizeRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
