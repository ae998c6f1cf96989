package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (memory, redis, sqlite).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrator_cache_hits_total",
			Help: "Total number of cache hits within TTL",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses by backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrator_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// CacheExpired tracks reads that found an expired entry.
	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrator_cache_expired_total",
			Help: "Total number of cache reads that hit an expired entry",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrator_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "get", "set", "delete"
	)
)
