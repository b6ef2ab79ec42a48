package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Name:      "search_duration_seconds",
			Help:      "Full-scan relevance search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Name:      "search_results",
			Help:      "Number of products returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	indexFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "index_fallbacks_total",
			Help:      "Ordered queries retried without ordering because an index was missing",
		},
		[]string{"operation"},
	)

	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "store_errors_total",
			Help:      "Catalog store failures degraded to empty results",
		},
		[]string{"operation"},
	)

	imageLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "image_lookups_total",
			Help:      "Object storage image lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(searchDuration)
	prometheus.MustRegister(searchResults)
	prometheus.MustRegister(indexFallbacks)
	prometheus.MustRegister(storeErrors)
	prometheus.MustRegister(imageLookups)
}

// ObserveSearch records one search execution.
func ObserveSearch(d time.Duration, results int) {
	searchDuration.Observe(d.Seconds())
	searchResults.Observe(float64(results))
}

// IncIndexFallback counts an unordered retry.
func IncIndexFallback(operation string) {
	indexFallbacks.WithLabelValues(operation).Inc()
}

// IncStoreError counts a degraded store failure.
func IncStoreError(operation string) {
	storeErrors.WithLabelValues(operation).Inc()
}

// Image lookup outcomes.
const (
	ImageFound        = "found"
	ImageNotFound     = "not_found"
	ImageUnauthorized = "unauthorized"
	ImageError        = "error"
)

// IncImageLookup counts an object storage lookup.
func IncImageLookup(outcome string) {
	imageLookups.WithLabelValues(outcome).Inc()
}
