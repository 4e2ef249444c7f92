package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-auth/internal/database"
)

const (
	defaultAttemptsLimit = 50
	maxAttemptsLimit     = 500
)

// AttemptsHandler lists recorded authentication attempts
type AttemptsHandler struct {
	reader database.AttemptReader
	logger *slog.Logger
}

// NewAttemptsHandler creates a new attempts handler
func NewAttemptsHandler(reader database.AttemptReader, logger *slog.Logger) *AttemptsHandler {
	return &AttemptsHandler{reader: reader, logger: logger}
}

// AttemptResponse is one attempt in the list response
type AttemptResponse struct {
	ID         string  `json:"id"`
	Identity   string  `json:"identity,omitempty"`
	Distance   float64 `json:"distance"`
	Outcome    string  `json:"outcome"`
	RemoteAddr string  `json:"remote_addr,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// List returns the most recent attempts, newest first
func (h *AttemptsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultAttemptsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxAttemptsLimit)
	}

	attempts, err := h.reader.RecentAttempts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list attempts", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}

	resp := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, AttemptResponse{
			ID:         a.ID,
			Identity:   a.Identity,
			Distance:   a.Distance,
			Outcome:    a.Outcome,
			RemoteAddr: a.RemoteAddr,
			CreatedAt:  a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
