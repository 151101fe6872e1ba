package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CycleDurationSeconds tracks how long each cycle waited for its panels.
	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "market_dashboard_refresh_cycle_duration_seconds",
		Help:    "Duration of refresh cycles up to publication",
		Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	// CyclesTotal counts cycles by result: complete, partial or skipped.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_refresh_cycles_total",
		Help: "Total number of refresh cycles by result",
	}, []string{"result"})

	// PanelTimeoutsTotal counts panels that missed the cycle deadline.
	PanelTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_dashboard_refresh_panel_timeouts_total",
		Help: "Total number of panels still pending at cycle publication",
	}, []string{"panel"})

	// NextRefreshSeconds is the delay until the next scheduled cycle.
	NextRefreshSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "market_dashboard_refresh_next_seconds",
		Help: "Seconds until the next scheduled refresh cycle",
	})
)
