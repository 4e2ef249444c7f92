package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-auth/internal/auth"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/facematch"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusCreated, map[string]any{"identity": "alice", "distance": 0.25})

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["identity"] != "alice" || result["distance"] != 0.25 {
		t.Errorf("unexpected body %v", result)
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
	}{
		{"BadRequest", http.StatusBadRequest, "bad"},
		{"Unauthorized", http.StatusUnauthorized, "face not recognized"},
		{"EmptyMessage", http.StatusInternalServerError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondError(recorder, tc.statusCode, tc.message)

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")

			var result map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if _, ok := result["error"]; !ok {
				t.Error("expected error key")
			}
			if result["error"] != tc.message {
				t.Errorf("expected error '%s', got '%s'", tc.message, result["error"])
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not recognized", auth.ErrNotRecognized, http.StatusUnauthorized},
		{"no face", fmt.Errorf("embedding capture: %w", embedder.ErrNoFace), http.StatusUnprocessableEntity},
		{"multiple faces", embedder.ErrMultipleFaces, http.StatusUnprocessableEntity},
		{"dimension mismatch", &facematch.DimensionMismatchError{Expected: 2, Actual: 3}, http.StatusBadRequest},
		{"empty image", auth.ErrEmptyImage, http.StatusBadRequest},
		{"no embedder", auth.ErrNoEmbedder, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, message := statusForError(tc.err)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if message == "" {
				t.Error("expected a message")
			}
		})
	}

	if _, msg := statusForError(errors.New("dial tcp 10.0.0.1: refused")); msg != "authentication failed" {
		t.Errorf("internal errors must not leak, got %q", msg)
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("line1\nline2\r"); got != "line1line2" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}
