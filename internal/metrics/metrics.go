// Package metrics exports service measurements in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

const namespace = "vault_rag"

// Ensure Exporter implements the interface.
var _ driven.MetricsRecorder = (*Exporter)(nil)

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets:    []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		RuntimeCollectors: true,
	}
}

// Exporter records retrieval and ingestion metrics on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	retrievalRequests *prometheus.CounterVec
	retrievalLatency  prometheus.Histogram
	ready             prometheus.Gauge

	ingestRuns      prometheus.Counter
	ingestDocuments prometheus.Counter
	ingestChunks    prometheus.Counter
	ingestSkipped   prometheus.Counter
	ingestDuration  prometheus.Gauge
}

// New creates an exporter and registers its collectors.
func New(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.retrievalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total number of retrieval requests by outcome",
		},
		[]string{"outcome"},
	)

	e.retrievalLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "latency_seconds",
			Help:      "Retrieval request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.ready = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "ready",
			Help:      "1 when the index is loaded and serving",
		},
	)

	e.ingestRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "runs_total",
		Help:      "Total number of completed ingestion runs",
	})

	e.ingestDocuments = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "documents_total",
		Help:      "Total number of documents ingested",
	})

	e.ingestChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "chunks_total",
		Help:      "Total number of chunks indexed",
	})

	e.ingestSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "skipped_total",
		Help:      "Total number of files skipped during ingestion",
	})

	e.ingestDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "last_duration_seconds",
		Help:      "Duration of the last ingestion run in seconds",
	})

	registry.MustRegister(
		e.retrievalRequests,
		e.retrievalLatency,
		e.ready,
		e.ingestRuns,
		e.ingestDocuments,
		e.ingestChunks,
		e.ingestSkipped,
		e.ingestDuration,
	)

	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// ObserveRetrieval records one retrieval request.
func (e *Exporter) ObserveRetrieval(outcome string, elapsed time.Duration) {
	e.retrievalRequests.WithLabelValues(outcome).Inc()
	e.retrievalLatency.Observe(elapsed.Seconds())
}

// ObserveIngest records a completed ingestion run.
func (e *Exporter) ObserveIngest(report *domain.IngestReport) {
	if report == nil {
		return
	}
	e.ingestRuns.Inc()
	e.ingestDocuments.Add(float64(report.Documents))
	e.ingestChunks.Add(float64(report.Chunks))
	e.ingestSkipped.Add(float64(report.Skipped))
	e.ingestDuration.Set(report.Duration.Seconds())
}

// SetReady records whether the retrieval service is serving.
func (e *Exporter) SetReady(ready bool) {
	if ready {
		e.ready.Set(1)
		return
	}
	e.ready.Set(0)
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}
