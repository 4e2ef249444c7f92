package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// Pinger reports whether an upstream dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports roster and embedder state
type HealthHandler struct {
	matcher *facematch.Matcher
	pinger  Pinger // optional
}

// NewHealthHandler creates a health handler. pinger may be nil.
func NewHealthHandler(matcher *facematch.Matcher, pinger Pinger) *HealthHandler {
	return &HealthHandler{matcher: matcher, pinger: pinger}
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status     string `json:"status"`
	RosterSize int    `json:"roster_size"`
	Dimension  int    `json:"dimension"`
	Embedder   string `json:"embedder,omitempty"`
}

// Health handles the health check endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		RosterSize: h.matcher.Len(),
		Dimension:  h.matcher.Dim(),
	}

	status := http.StatusOK
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Embedder = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Embedder = "ok"
		}
	}
	respondJSON(w, status, resp)
}
