package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/database/mock"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/logger"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

type fakeEmbedder struct {
	emb   facematch.Embedding
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedFace(ctx context.Context, image []byte) (facematch.Embedding, error) {
	f.calls++
	return f.emb, f.err
}

type failingIssuer struct{}

func (failingIssuer) CreateSession(context.Context, string, float64) (*middleware.Session, error) {
	return nil, errors.New("session store down")
}

func newRosterMatcher(t *testing.T) *facematch.Matcher {
	t.Helper()
	m, err := facematch.NewMatcher(0.6)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	err = m.Load([]facematch.ReferenceEntry{
		{Identity: "alice", Embedding: facematch.Embedding{0, 0}},
		{Identity: "bob", Embedding: facematch.Embedding{10, 10}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m
}

func TestService_Authenticate(t *testing.T) {
	tests := []struct {
		name         string
		embedder     *fakeEmbedder
		image        []byte
		wantIdentity string
		wantErr      error
		wantOutcome  string
	}{
		{
			name:         "recognized",
			embedder:     &fakeEmbedder{emb: facematch.Embedding{0.1, 0.1}},
			image:        []byte("jpeg"),
			wantIdentity: "alice",
			wantOutcome:  database.OutcomeAccepted,
		},
		{
			name:        "not recognized",
			embedder:    &fakeEmbedder{emb: facematch.Embedding{5, 5}},
			image:       []byte("jpeg"),
			wantErr:     ErrNotRecognized,
			wantOutcome: database.OutcomeRejected,
		},
		{
			name:        "no face",
			embedder:    &fakeEmbedder{err: embedder.ErrNoFace},
			image:       []byte("jpeg"),
			wantErr:     embedder.ErrNoFace,
			wantOutcome: database.OutcomeNoFace,
		},
		{
			name:        "multiple faces",
			embedder:    &fakeEmbedder{err: embedder.ErrMultipleFaces},
			image:       []byte("jpeg"),
			wantErr:     embedder.ErrMultipleFaces,
			wantOutcome: database.OutcomeInvalid,
		},
		{
			name:        "wrong dimension",
			embedder:    &fakeEmbedder{emb: facematch.Embedding{0, 0, 0}},
			image:       []byte("jpeg"),
			wantErr:     facematch.ErrDimensionMismatch,
			wantOutcome: database.OutcomeInvalid,
		},
		{
			name:        "backend failure",
			embedder:    &fakeEmbedder{err: errors.New("connection refused")},
			image:       []byte("jpeg"),
			wantOutcome: database.OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := mock.NewMockAttemptRepository()
			sessions := middleware.NewSessionManager("secret", nil, logger.Nop())
			svc := NewService(newRosterMatcher(t),
				WithEmbedder(tt.embedder),
				WithSessions(sessions),
				WithAttempts(attempts),
				WithLogger(logger.Nop()),
			)

			ctx := ContextWithRemoteAddr(context.Background(), "10.0.0.7")
			res, err := svc.Authenticate(ctx, tt.image)

			switch {
			case tt.wantIdentity != "":
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if res.Identity != tt.wantIdentity {
					t.Errorf("identity = %q, want %q", res.Identity, tt.wantIdentity)
				}
				if res.Session == nil || res.Session.Identity != tt.wantIdentity {
					t.Errorf("expected session for %s, got %+v", tt.wantIdentity, res.Session)
				}
				if sessions.Count() != 1 {
					t.Errorf("expected 1 session, got %d", sessions.Count())
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err == nil {
					t.Fatal("expected error")
				}
			}

			recorded := attempts.Attempts()
			if len(recorded) != 1 {
				t.Fatalf("expected 1 recorded attempt, got %d", len(recorded))
			}
			if recorded[0].Outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", recorded[0].Outcome, tt.wantOutcome)
			}
			if recorded[0].RemoteAddr != "10.0.0.7" {
				t.Errorf("remote addr = %q", recorded[0].RemoteAddr)
			}
			if tt.wantIdentity == "" && recorded[0].Identity != "" {
				t.Errorf("failed attempt must not carry an identity: %+v", recorded[0])
			}
			if tt.wantIdentity == "" && recorded[0].Distance != 0 {
				t.Errorf("failed attempt must not carry a distance: %+v", recorded[0])
			}
			if tt.wantIdentity != "" && recorded[0].Distance != res.Distance {
				t.Errorf("recorded distance = %v, want %v", recorded[0].Distance, res.Distance)
			}
		})
	}
}

func TestService_AuthenticateWithoutEmbedder(t *testing.T) {
	svc := NewService(newRosterMatcher(t), WithLogger(logger.Nop()))

	if svc.HasEmbedder() {
		t.Error("expected no embedder")
	}
	if _, err := svc.Authenticate(context.Background(), []byte("jpeg")); !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("expected ErrNoEmbedder, got %v", err)
	}

	res, err := svc.AuthenticateEmbedding(context.Background(), facematch.Embedding{9.9, 10})
	if err != nil {
		t.Fatalf("AuthenticateEmbedding failed: %v", err)
	}
	if res.Identity != "bob" || res.Session != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestService_EmptyImage(t *testing.T) {
	emb := &fakeEmbedder{emb: facematch.Embedding{0, 0}}
	svc := NewService(newRosterMatcher(t), WithEmbedder(emb), WithLogger(logger.Nop()))

	if _, err := svc.Authenticate(context.Background(), nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedder must not be called for an empty image")
	}
}

func TestService_EmptyRoster(t *testing.T) {
	m, _ := facematch.NewMatcher(0.6)
	svc := NewService(m, WithLogger(logger.Nop()))

	if _, err := svc.AuthenticateEmbedding(context.Background(), facematch.Embedding{0, 0}); !errors.Is(err, ErrNotRecognized) {
		t.Errorf("expected ErrNotRecognized, got %v", err)
	}
}

func TestService_AttemptRecordingFailureIgnored(t *testing.T) {
	attempts := mock.NewMockAttemptRepository()
	attempts.RecordError = errors.New("disk full")
	svc := NewService(newRosterMatcher(t), WithAttempts(attempts), WithLogger(logger.Nop()))

	res, err := svc.AuthenticateEmbedding(context.Background(), facematch.Embedding{0, 0})
	if err != nil {
		t.Fatalf("recording failure must not change the outcome: %v", err)
	}
	if res.Identity != "alice" {
		t.Errorf("unexpected identity %q", res.Identity)
	}
}

func TestService_SessionFailure(t *testing.T) {
	attempts := mock.NewMockAttemptRepository()
	svc := NewService(newRosterMatcher(t),
		WithSessions(failingIssuer{}),
		WithAttempts(attempts),
		WithLogger(logger.Nop()),
	)

	if _, err := svc.AuthenticateEmbedding(context.Background(), facematch.Embedding{0, 0}); err == nil {
		t.Fatal("expected session error")
	}
	if got := attempts.Attempts(); len(got) != 1 || got[0].Outcome != database.OutcomeError {
		t.Errorf("expected one error attempt, got %+v", got)
	}
}
