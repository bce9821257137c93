// Package metrics exports pipeline observations in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Exporter implements the interface.
var _ driven.Metrics = (*Exporter)(nil)

const namespace = "lineage"

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}
}

// Exporter records ingestion and resolution observations.
type Exporter struct {
	registry *prometheus.Registry

	ingestCalls   *prometheus.CounterVec
	ingestChunks  *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec

	resolveCalls   prometheus.Counter
	resolveFaces   *prometheus.CounterVec
	resolveLatency prometheus.Histogram

	upstreamErrors *prometheus.CounterVec
}

// NewExporter creates an exporter and registers its collectors.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.ingestCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "calls_total",
			Help:      "Ingestion calls by outcome",
		},
		[]string{"outcome"},
	)
	e.ingestChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks submitted for ingestion by call outcome",
		},
		[]string{"outcome"},
	)
	e.ingestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Ingestion call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.resolveCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "calls_total",
		Help:      "Identity resolution calls",
	})
	e.resolveFaces = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "faces_total",
			Help:      "Detected faces by resolution result",
		},
		[]string{"resolved"},
	)
	e.resolveLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "duration_seconds",
		Help:      "Identity resolution call latency in seconds",
		Buckets:   cfg.LatencyBuckets,
	})

	e.upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed outbound calls by operation",
		},
		[]string{"op"},
	)

	registry.MustRegister(
		e.ingestCalls, e.ingestChunks, e.ingestLatency,
		e.resolveCalls, e.resolveFaces, e.resolveLatency,
		e.upstreamErrors,
	)
	return e
}

// ObserveIngest records one ingestion call.
func (e *Exporter) ObserveIngest(outcome string, chunks int, elapsed time.Duration) {
	e.ingestCalls.WithLabelValues(outcome).Inc()
	e.ingestChunks.WithLabelValues(outcome).Add(float64(chunks))
	e.ingestLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveResolution records one resolution call.
func (e *Exporter) ObserveResolution(resolved, unresolved int, elapsed time.Duration) {
	e.resolveCalls.Inc()
	e.resolveFaces.WithLabelValues(strconv.FormatBool(true)).Add(float64(resolved))
	e.resolveFaces.WithLabelValues(strconv.FormatBool(false)).Add(float64(unresolved))
	e.resolveLatency.Observe(elapsed.Seconds())
}

// ObserveUpstreamError records a failed outbound call.
func (e *Exporter) ObserveUpstreamError(op string) {
	if op == "" {
		op = "unknown"
	}
	e.upstreamErrors.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
