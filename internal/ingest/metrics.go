package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts completed ingestion runs.
	runsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragchatd",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of completed ingestion runs",
		},
	)

	// chunksIngested counts chunks written to the vector store.
	chunksIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragchatd",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks embedded and upserted",
		},
	)

	// runDuration tracks end-to-end ingestion latency.
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragchatd",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of ingestion runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
)

// recordRun records the outcome of one completed ingestion run.
func recordRun(result *Result) {
	runsTotal.Inc()
	chunksIngested.Add(float64(result.Chunks))
	runDuration.Observe(result.Duration.Seconds())
}
