// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestRows counts processed catalog rows by outcome
	// (indexed, metadata_only, skipped, failed).
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songsense_ingest_rows_total",
			Help: "Catalog rows processed by ingestion, by outcome",
		},
		[]string{"outcome"},
	)

	EmbedRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songsense_embed_retries_total",
			Help: "Embedding retries, by failure classification",
		},
		[]string{"kind"},
	)

	RetrievalResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songsense_retrieval_results",
			Help:    "Candidates returned per retrieval source",
			Buckets: []float64{0, 1, 2, 5, 10, 15},
		},
		[]string{"source"},
	)

	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songsense_retrieval_failures_total",
			Help: "Retrieval source failures degraded to empty results",
		},
		[]string{"source"},
	)

	LLMFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songsense_llm_fallbacks_total",
			Help: "Times a local fallback replaced an LLM call",
		},
		[]string{"stage"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songsense_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "songsense_circuit_breaker_state",
			Help: "Circuit breaker state per backend",
		},
		[]string{"name"},
	)

	IngestJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songsense_ingest_jobs_total",
			Help: "Background ingestion jobs, by final status",
		},
		[]string{"status"},
	)
)
