package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	TokensIssuedTotal *prometheus.CounterVec
	CompletionsTotal  *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cadence"
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	tokensIssuedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_tokens_issued_total",
			Help:      "Total session tokens issued",
		},
		[]string{"with_context"},
	)

	completionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workout_completions_total",
			Help:      "Total workout completions recorded",
		},
		[]string{"status"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"endpoint", "error_type"},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		tokensIssuedTotal,
		completionsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:          registry,
		RequestsTotal:     requestsTotal,
		RequestDuration:   requestDuration,
		TokensIssuedTotal: tokensIssuedTotal,
		CompletionsTotal:  completionsTotal,
		ErrorsTotal:       errorsTotal,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(endpoint, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTokenIssued records one minted session token.
func (m *Metrics) RecordTokenIssued(withContext bool) {
	label := "false"
	if withContext {
		label = "true"
	}
	m.TokensIssuedTotal.WithLabelValues(label).Inc()
}

// RecordCompletion records one completion attempt.
func (m *Metrics) RecordCompletion(status string) {
	m.CompletionsTotal.WithLabelValues(status).Inc()
}

// RecordError records one failed request.
func (m *Metrics) RecordError(endpoint, errorType string) {
	m.ErrorsTotal.WithLabelValues(endpoint, errorType).Inc()
}
