package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval and indexing Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval requests by strategy and outcome",
		},
		[]string{"strategy", "status"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval duration in seconds, embedding included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	IndexedArticlesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indexed_articles_total",
			Help:      "Total articles written to the index",
		},
	)

	IndexingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "indexing_duration_seconds",
			Help:      "Duration of a full indexing pass in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

var registerRetrieval sync.Once

// RegisterRetrievalMetrics registers retrieval and indexing metrics. Safe to call more than once.
func RegisterRetrievalMetrics() {
	registerRetrieval.Do(func() {
		prometheus.MustRegister(
			RetrievalRequestsTotal,
			RetrievalDuration,
			IndexedArticlesTotal,
			IndexingDuration,
		)
	})
}
