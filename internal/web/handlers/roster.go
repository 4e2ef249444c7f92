package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/roster"
)

// RosterHandler exposes the loaded roster
type RosterHandler struct {
	loader  *roster.Loader
	matcher *facematch.Matcher
	logger  *slog.Logger
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(loader *roster.Loader, matcher *facematch.Matcher, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{loader: loader, matcher: matcher, logger: logger}
}

// RosterResponse describes the roster in service
type RosterResponse struct {
	Source     string   `json:"source"`
	Count      int      `json:"count"`
	Dimension  int      `json:"dimension"`
	Threshold  float64  `json:"threshold"`
	Identities []string `json:"identities"`
}

// List returns the enrolled identities in enrollment order
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.matcher.Identities()
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, RosterResponse{
		Source:     h.loader.Source().Name(),
		Count:      len(ids),
		Dimension:  h.matcher.Dim(),
		Threshold:  h.matcher.Threshold(),
		Identities: ids,
	})
}

// Reload refetches the roster from its source
func (h *RosterHandler) Reload(w http.ResponseWriter, r *http.Request) {
	res, err := h.loader.Reload(r.Context())
	if err != nil {
		if errors.Is(err, facematch.ErrDimensionMismatch) || errors.Is(err, facematch.ErrDuplicateIdentity) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "failed to reload roster")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// AuditResponse lists ambiguous identity pairs
type AuditResponse struct {
	Threshold float64            `json:"threshold"`
	Pairs     []roster.AuditPair `json:"pairs"`
}

// Audit reports pairs of identities closer than the threshold (query param, defaults to the matcher's)
func (h *RosterHandler) Audit(w http.ResponseWriter, r *http.Request) {
	threshold := h.matcher.Threshold()
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = t
	}

	pairs, err := roster.Audit(h.matcher.Entries(), threshold)
	if err != nil {
		if errors.Is(err, facematch.ErrInvalidThreshold) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("roster audit failed", "error", err)
		respondError(w, http.StatusInternalServerError, "audit failed")
		return
	}
	if pairs == nil {
		pairs = []roster.AuditPair{}
	}
	respondJSON(w, http.StatusOK, AuditResponse{Threshold: threshold, Pairs: pairs})
}
