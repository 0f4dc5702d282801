package embeddings

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration tracks embedding request latency.
	// Labels: operation (embed_documents, embed_query)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchatd",
			Subsystem: "embeddings",
			Name:      "request_duration_seconds",
			Help:      "Duration of embedding API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// requestsTotal counts embedding requests by outcome.
	// Labels: operation, result (success, error)
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchatd",
			Subsystem: "embeddings",
			Name:      "requests_total",
			Help:      "Total number of embedding API requests",
		},
		[]string{"operation", "result"},
	)

	// batchSize tracks how many texts are embedded per request.
	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragchatd",
			Subsystem: "embeddings",
			Name:      "batch_size",
			Help:      "Number of texts per embedding batch request",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

// recordRequest records the outcome of one embedding API call.
func recordRequest(operation string, texts int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	requestsTotal.WithLabelValues(operation, result).Inc()
	requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	batchSize.Observe(float64(texts))
}
