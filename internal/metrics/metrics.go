// Package metrics exposes Prometheus collectors for extraction and
// comparison work.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mitc"

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeShape     = "shape_error"
	OutcomeRateLimit = "rate_limited"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Operations for the request duration histogram.
const (
	OpExtract = "extract"
	OpCompare = "compare"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ExtractionAttempts *prometheus.CounterVec
	Extractions        *prometheus.CounterVec
	Comparisons        *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ExtractionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_attempts_total",
			Help:      "Extraction model calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		Extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Finished extractions by final status.",
		}, []string{"status"}),
		Comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Finished comparisons by status.",
		}, []string{"status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Wall time of single model calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider", "operation"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAttempt counts one extraction model call.
func (m *Metrics) RecordAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.ExtractionAttempts.With(prometheus.Labels{"provider": provider, "outcome": outcome}).Inc()
}

// RecordExtraction counts a finished extraction.
func (m *Metrics) RecordExtraction(status string) {
	if m == nil {
		return
	}
	m.Extractions.With(prometheus.Labels{"status": status}).Inc()
}

// RecordComparison counts a finished comparison.
func (m *Metrics) RecordComparison(status string) {
	if m == nil {
		return
	}
	m.Comparisons.With(prometheus.Labels{"status": status}).Inc()
}

// ObserveRequest records the duration of one model call.
func (m *Metrics) ObserveRequest(provider, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.With(prometheus.Labels{"provider": provider, "operation": operation}).Observe(d.Seconds())
}
