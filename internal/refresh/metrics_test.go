package refresh

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if CycleDurationSeconds == nil {
		t.Error("CycleDurationSeconds not registered")
	}

	if CyclesTotal == nil {
		t.Error("CyclesTotal not registered")
	}

	if PanelTimeoutsTotal == nil {
		t.Error("PanelTimeoutsTotal not registered")
	}

	if NextRefreshSeconds == nil {
		t.Error("NextRefreshSeconds not registered")
	}
}

func TestMetrics_WithLabels(t *testing.T) {
	for _, result := range []string{"complete", "partial", "skipped"} {
		CyclesTotal.WithLabelValues(result).Inc()
	}
	PanelTimeoutsTotal.WithLabelValues(PanelNews).Inc()
	CycleDurationSeconds.Observe(1.5)
	NextRefreshSeconds.Set(60)
}
