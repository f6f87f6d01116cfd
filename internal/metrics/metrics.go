package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search pipeline metrics
	SearchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_searches_completed_total",
			Help: "Total number of search orchestrations by outcome",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aeo_search_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	CitationsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aeo_citations_extracted",
			Help:    "Number of citations extracted per search",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aeo_response_cache_hits_total",
			Help: "Total number of responses served from the cache",
		},
	)

	// Persistence metrics
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_history_writes_total",
			Help: "Total number of history write attempts by outcome",
		},
		[]string{"status"},
	)
)
