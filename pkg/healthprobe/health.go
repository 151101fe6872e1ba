// Package healthprobe serves liveness and readiness. The service becomes
// ready once the first refresh cycle has published a snapshot.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime   time.Time
	ready       atomic.Bool
	draining    atomic.Bool
	lastRefresh atomic.Int64 // unix nanos of the last published cycle
	partial     atomic.Bool  // last cycle had pending panels
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// MarkDraining reports not ready from now on. A cycle published during
// shutdown does not bring readiness back.
func (h *HealthChecker) MarkDraining() {
	h.draining.Store(true)
}

// MarkRefreshed records a published refresh cycle and marks the service ready.
func (h *HealthChecker) MarkRefreshed(at time.Time, complete bool) {
	h.lastRefresh.Store(at.UnixNano())
	h.partial.Store(!complete)
	h.ready.Store(true)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	LastRefresh string `json:"last_refresh,omitempty"`
	Partial     bool   `json:"partial,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.response("healthy")
		writeJSON(w, http.StatusOK, resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK after the first refresh cycle, 503 before it.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.draining.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "draining",
				Message: "shutting down",
			})
			return
		}
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "waiting for first refresh cycle",
			})
			return
		}

		writeJSON(w, http.StatusOK, h.response("ready"))
	}
}

func (h *HealthChecker) response(status string) HealthResponse {
	resp := HealthResponse{
		Status: status,
		Uptime: time.Since(h.startTime).String(),
	}
	if ns := h.lastRefresh.Load(); ns != 0 {
		resp.LastRefresh = time.Unix(0, ns).UTC().Format(time.RFC3339)
		resp.Partial = h.partial.Load()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
