package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/stream"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	transport  stream.Transport
	streamName string
	pinger     interface {
		Ping(ctx context.Context) error
	}
}

// NewHealthHandler builds health probes. pinger may be nil when Redis is
// not configured.
func NewHealthHandler(t stream.Transport, streamName string, pinger interface{ Ping(ctx context.Context) error }) *HealthHandler {
	return &HealthHandler{transport: t, streamName: streamName, pinger: pinger}
}

// Health is the liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready verifies the stream and cache collaborators are reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := stream.Health(ctx, h.transport, h.streamName); err != nil {
		checks["stream"] = err.Error()
		healthy = false
	} else {
		checks["stream"] = "ok"
	}

	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}
