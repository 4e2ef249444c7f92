package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-auth/internal/auth"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/facematch"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps authentication errors to an HTTP status and a client-facing message.
// Unknown errors map to 500 with a generic message.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrNotRecognized):
		return http.StatusUnauthorized, auth.ErrNotRecognized.Error()
	case errors.Is(err, embedder.ErrNoFace):
		return http.StatusUnprocessableEntity, embedder.ErrNoFace.Error()
	case errors.Is(err, embedder.ErrMultipleFaces):
		return http.StatusUnprocessableEntity, embedder.ErrMultipleFaces.Error()
	case errors.Is(err, facematch.ErrDimensionMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrEmptyImage):
		return http.StatusBadRequest, auth.ErrEmptyImage.Error()
	case errors.Is(err, auth.ErrNoEmbedder):
		return http.StatusServiceUnavailable, auth.ErrNoEmbedder.Error()
	default:
		return http.StatusInternalServerError, "authentication failed"
	}
}
