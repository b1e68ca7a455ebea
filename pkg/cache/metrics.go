package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyte_cache_hits_total",
			Help: "Total number of extraction cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyte_cache_misses_total",
			Help: "Total number of extraction cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to the cache backend
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyte_cache_written_bytes_total",
			Help: "Total bytes written to the extraction cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyte_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
