package ratelimit

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if ThrottleWaitSeconds == nil {
		t.Error("ThrottleWaitSeconds not registered")
	}

	if ThrottledCallsTotal == nil {
		t.Error("ThrottledCallsTotal not registered")
	}
}

func TestMetrics_WithLabels(t *testing.T) {
	ThrottleWaitSeconds.WithLabelValues("yahoo/quote").Observe(0.25)
	ThrottledCallsTotal.WithLabelValues("yahoo/quote").Inc()
}
