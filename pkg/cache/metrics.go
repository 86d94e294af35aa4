package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_hits_total",
			Help: "Total number of price cache hits",
		},
		[]string{"tier"},
	)

	// CacheMisses tracks cache misses by tier
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_misses_total",
			Help: "Total number of price cache misses",
		},
		[]string{"tier"},
	)

	// CacheEvictions tracks expired entries removed from a store
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_evictions_total",
			Help: "Total number of expired price cache entries removed",
		},
		[]string{"tier"},
	)

	// CacheEntries tracks the number of entries held in memory
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_cache_entries",
			Help: "Current number of entries held by an in-memory price cache",
		},
		[]string{"tier"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_errors_total",
			Help: "Total number of price cache operation errors",
		},
		[]string{"tier", "operation"}, // "get", "set", "delete"
	)
)
