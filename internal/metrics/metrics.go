// Package metrics provides Prometheus instrumentation for the normalization
// pipeline and the secure cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters and histograms on their own registry so embedding
// applications never collide with the default registry. A nil *Metrics is a
// valid no-op receiver: instrumentation is optional everywhere.
type Metrics struct {
	registry *prometheus.Registry

	normalizationsTotal *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	piiDetected         *prometheus.CounterVec
	redactionsTotal     *prometheus.CounterVec
	cacheValidations    *prometheus.CounterVec
	cacheServes         *prometheus.CounterVec
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	normalizationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rdapnorm",
		Name:      "normalizations_total",
		Help:      "Normalization runs by registry and outcome.",
	}, []string{"registry", "outcome"})

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rdapnorm",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage duration in seconds.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"stage"})

	piiDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rdapnorm",
		Name:      "pii_fields_detected_total",
		Help:      "PII fields detected by class.",
	}, []string{"type"})

	redactionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rdapnorm",
		Name:      "redactions_total",
		Help:      "Fields redacted by class and level.",
	}, []string{"type", "level"})

	cacheValidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rdapnorm",
		Name:      "cache_validations_total",
		Help:      "Cache entry validations by result and rejection reason.",
	}, []string{"result", "reason"})

	cacheServes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rdapnorm",
		Name:      "cache_requests_total",
		Help:      "Cache reads by outcome (hit, miss, rejected).",
	}, []string{"outcome"})

	reg.MustRegister(normalizationsTotal, stageDuration, piiDetected,
		redactionsTotal, cacheValidations, cacheServes)

	return &Metrics{
		registry:            reg,
		normalizationsTotal: normalizationsTotal,
		stageDuration:       stageDuration,
		piiDetected:         piiDetected,
		redactionsTotal:     redactionsTotal,
		cacheValidations:    cacheValidations,
		cacheServes:         cacheServes,
	}
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordNormalization counts one pipeline run.
func (m *Metrics) RecordNormalization(registry, outcome string) {
	if m == nil {
		return
	}
	m.normalizationsTotal.WithLabelValues(registry, outcome).Inc()
}

// ObserveStage records one stage's duration.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordPIIDetected counts detected PII fields by class.
func (m *Metrics) RecordPIIDetected(piiType string) {
	if m == nil {
		return
	}
	m.piiDetected.WithLabelValues(piiType).Inc()
}

// RecordRedaction counts one redacted field.
func (m *Metrics) RecordRedaction(piiType, level string) {
	if m == nil {
		return
	}
	m.redactionsTotal.WithLabelValues(piiType, level).Inc()
}

// RecordCacheValidation counts one validation outcome. reason is empty for
// valid entries.
func (m *Metrics) RecordCacheValidation(result, reason string) {
	if m == nil {
		return
	}
	m.cacheValidations.WithLabelValues(result, reason).Inc()
}

// RecordCacheRequest counts one cache read outcome.
func (m *Metrics) RecordCacheRequest(outcome string) {
	if m == nil {
		return
	}
	m.cacheServes.WithLabelValues(outcome).Inc()
}
