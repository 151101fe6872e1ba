package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ThrottleWaitSeconds tracks how long callers were held back per source.
	ThrottleWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_dashboard_ratelimit_wait_seconds",
		Help:    "Time callers spent waiting on the per-source rate limiter",
		Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"source"})

	// ThrottledCallsTotal counts calls that had to wait at all.
	ThrottledCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_ratelimit_throttled_total",
		Help: "Total number of calls delayed by the rate limiter",
	}, []string{"source"})
)
