package sources

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchDurationSeconds tracks upstream call latency including retries.
	FetchDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_dashboard_source_fetch_duration_seconds",
		Help:    "Duration of upstream adapter calls, including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// FetchErrorsTotal tracks upstream calls that ultimately failed.
	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_source_fetch_errors_total",
		Help: "Total number of failed upstream adapter calls",
	}, []string{"source"})

	// RetriesTotal tracks retried upstream attempts.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_source_retries_total",
		Help: "Total number of retried upstream requests",
	}, []string{"source"})
)
