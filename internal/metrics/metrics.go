// Package metrics defines the Prometheus collectors for the pipeline.
// Collectors are built and registered once in New() and carried on the
// Metrics struct rather than declared as package-level vars, so the set
// threads through Deps like the logger does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	DocumentsTotal       *prometheus.CounterVec
	ExtractionMethodUsed *prometheus.CounterVec
	OCRMethodUsed        *prometheus.CounterVec
	BreakerStateChanges  *prometheus.CounterVec
	ChunkLLMDuration     *prometheus.HistogramVec
	PipelineStageDuration *prometheus.HistogramVec
	DedupClusterSize     prometheus.Histogram
	BorrowersPersisted   prometheus.Counter
	BorrowerPersistFails prometheus.Counter
}

// New builds and registers all collectors against reg. Pass
// prometheus.NewRegistry() in production and a fresh registry per test in
// tests, to avoid the duplicate-registration panic that a package-level
// default registry would risk across parallel test packages.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docingest_documents_total",
			Help: "Total documents processed, by terminal status.",
		}, []string{"status"}),
		ExtractionMethodUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docingest_extraction_method_total",
			Help: "Extraction strategy actually used, by method.",
		}, []string{"method"}),
		OCRMethodUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docingest_ocr_method_total",
			Help: "OCR path taken, by method (none, gpu, parser_fallback).",
		}, []string{"method"}),
		BreakerStateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docingest_ocr_breaker_state_changes_total",
			Help: "OCR circuit breaker state transitions.",
		}, []string{"from", "to"}),
		ChunkLLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docingest_chunk_llm_duration_seconds",
			Help:    "LLM call duration per chunk.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		PipelineStageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docingest_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		DedupClusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docingest_dedup_cluster_size",
			Help:    "Number of raw borrower records merged per output record.",
			Buckets: prometheus.LinearBuckets(1, 1, 8),
		}),
		BorrowersPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docingest_borrowers_persisted_total",
			Help: "Borrower records successfully persisted.",
		}),
		BorrowerPersistFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docingest_borrower_persist_failures_total",
			Help: "Borrower records that failed to persist.",
		}),
	}

	reg.MustRegister(
		m.DocumentsTotal,
		m.ExtractionMethodUsed,
		m.OCRMethodUsed,
		m.BreakerStateChanges,
		m.ChunkLLMDuration,
		m.PipelineStageDuration,
		m.DedupClusterSize,
		m.BorrowersPersisted,
		m.BorrowerPersistFails,
	)
	return m
}
