package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_dashboard_cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_dashboard_cache_misses_total",
		Help: "Total number of cache misses, including expired entries",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_dashboard_cache_sets_total",
		Help: "Total number of cache sets",
	})

	CacheExpirationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_dashboard_cache_expirations_total",
		Help: "Total number of entries evicted lazily after their TTL elapsed",
	})

	CacheClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_dashboard_cache_clears_total",
		Help: "Total number of full cache clears",
	})

	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "market_dashboard_cache_entries",
		Help: "Number of entries currently held in the cache",
	})
)
