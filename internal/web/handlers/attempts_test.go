package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/database/mock"
	"github.com/kozaktomas/face-auth/internal/logger"
)

func TestAttemptsHandler_List(t *testing.T) {
	repo := mock.NewMockAttemptRepository()
	ctx := context.Background()
	for _, outcome := range []string{database.OutcomeNoFace, database.OutcomeRejected, database.OutcomeAccepted} {
		if err := repo.RecordAttempt(ctx, database.AuthAttempt{Outcome: outcome}); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}
	handler := NewAttemptsHandler(repo, logger.Nop())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"default limit", "", http.StatusOK, 3},
		{"limited", "?limit=2", http.StatusOK, 2},
		{"invalid", "?limit=x", http.StatusBadRequest, 0},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attempts"+tt.query, nil))

			assertStatusCode(t, recorder, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp []AttemptResponse
			parseJSONResponse(t, recorder, &resp)
			if len(resp) != tt.wantCount {
				t.Fatalf("expected %d attempts, got %d", tt.wantCount, len(resp))
			}
			if resp[0].Outcome != database.OutcomeAccepted {
				t.Errorf("expected newest first, got %+v", resp[0])
			}
		})
	}
}
