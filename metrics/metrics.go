// Package metrics provides Prometheus metrics for feed-enricher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedenricher"

var (
	// ItemsTotal counts items per source by outcome.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Total number of feed items by outcome",
		},
		[]string{"source", "outcome"},
	)

	// StageBranchTotal counts which branch produced each record stage.
	StageBranchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_branch_total",
			Help:      "Total number of enrichment stages by branch (ai or fallback)",
		},
		[]string{"stage", "branch"},
	)

	// GenerationDuration measures generation service calls.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation requests in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	// FetchDuration measures feed and page fetches.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of feed and page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "status"},
	)

	// PublishTotal counts publish calls by status.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of publish operations",
		},
		[]string{"sink", "status"},
	)

	// RunsTotal counts scheduler runs.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of scheduler runs",
		},
		[]string{"status"},
	)

	// ProcessedKeys tracks the size of the dedup state.
	ProcessedKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processed_keys",
			Help:      "Number of item keys recorded as processed",
		},
	)

	// CircuitState tracks the generation circuit breaker (0 closed, 1 open, 2 half-open).
	CircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_circuit_state",
			Help:      "Generation circuit breaker state (0 = closed, 1 = open, 2 = half-open)",
		},
	)
)

// RecordItem records the outcome of one feed item.
func RecordItem(source, outcome string) {
	ItemsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordStage records which branch produced a stage.
func RecordStage(stage, branch string) {
	StageBranchTotal.WithLabelValues(stage, branch).Inc()
}

// RecordGeneration records one generation call.
func RecordGeneration(status string, duration time.Duration) {
	GenerationDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFetch records one feed or page fetch.
func RecordFetch(kind, status string, duration time.Duration) {
	FetchDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// RecordPublish records a publish operation.
func RecordPublish(sink, status string) {
	PublishTotal.WithLabelValues(sink, status).Inc()
}

// RecordRun records a scheduler run.
func RecordRun(status string) {
	RunsTotal.WithLabelValues(status).Inc()
}

// SetProcessedKeys sets the dedup state size.
func SetProcessedKeys(n int) {
	ProcessedKeys.Set(float64(n))
}

// SetCircuitState sets the breaker gauge.
func SetCircuitState(state int) {
	CircuitState.Set(float64(state))
}
