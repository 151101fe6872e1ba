package marketdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OperationDurationSeconds tracks aggregator operation latency.
	OperationDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_dashboard_marketdata_operation_duration_seconds",
		Help:    "Duration of aggregator operations, cache hits included",
		Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	// ItemFailuresTotal tracks items dropped because their fetch failed.
	ItemFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_marketdata_item_failures_total",
		Help: "Total number of items omitted after an upstream failure",
	}, []string{"operation"})

	// UpstreamFetchesTotal tracks adapter calls issued on cache misses.
	UpstreamFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_marketdata_upstream_fetches_total",
		Help: "Total number of adapter calls issued after a cache miss",
	}, []string{"operation"})
)
