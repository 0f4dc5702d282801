package rag

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts pipeline runs by mode and outcome.
	// Labels: mode (qa, summary), result (success, error, empty)
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchatd",
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Total number of RAG queries",
		},
		[]string{"mode", "result"},
	)

	// queryDuration tracks end-to-end query latency.
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchatd",
			Subsystem: "rag",
			Name:      "query_duration_seconds",
			Help:      "Duration of RAG queries in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)
)

// recordQuery records the outcome of one query.
func recordQuery(mode, result string, duration time.Duration) {
	if mode != ModeSummary {
		mode = ModeQA
	}
	queriesTotal.WithLabelValues(mode, result).Inc()
	queryDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
