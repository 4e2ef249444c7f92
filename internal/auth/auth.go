// Package auth ties the embedder, the matcher and the session store into a login flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

var (
	// ErrNotRecognized is returned when no enrolled identity lies within the threshold.
	ErrNotRecognized = errors.New("face not recognized")

	// ErrNoEmbedder is returned by Authenticate when only embedding-based login is configured.
	ErrNoEmbedder = errors.New("no face embedder configured")

	// ErrEmptyImage is returned for a zero-length upload.
	ErrEmptyImage = errors.New("empty image")
)

// SessionIssuer creates a session for a recognized identity.
type SessionIssuer interface {
	CreateSession(ctx context.Context, identity string, distance float64) (*middleware.Session, error)
}

// Result is a successful authentication.
type Result struct {
	Identity string              `json:"identity"`
	Distance float64             `json:"distance"`
	Session  *middleware.Session `json:"session,omitempty"`
}

// Service authenticates face captures against the loaded roster.
type Service struct {
	embedder embedder.FaceEmbedder
	matcher  *facematch.Matcher
	sessions SessionIssuer
	attempts database.AttemptWriter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedder sets the backend used by Authenticate.
func WithEmbedder(e embedder.FaceEmbedder) Option {
	return func(s *Service) {
		s.embedder = e
	}
}

// WithSessions issues a session on every successful authentication.
func WithSessions(issuer SessionIssuer) Option {
	return func(s *Service) {
		s.sessions = issuer
	}
}

// WithAttempts records every attempt.
func WithAttempts(w database.AttemptWriter) Option {
	return func(s *Service) {
		s.attempts = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates an authentication service around matcher.
func NewService(matcher *facematch.Matcher, opts ...Option) *Service {
	s := &Service{
		matcher: matcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Matcher returns the matcher the service authenticates against.
func (s *Service) Matcher() *facematch.Matcher {
	return s.matcher
}

// HasEmbedder reports whether image-based authentication is available.
func (s *Service) HasEmbedder() bool {
	return s.embedder != nil
}

// Authenticate embeds the captured image and matches it against the roster.
func (s *Service) Authenticate(ctx context.Context, image []byte) (*Result, error) {
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	start := time.Now()
	emb, err := s.embedder.EmbedFace(ctx, image)
	if err != nil {
		s.record(ctx, outcomeFor(err), "", 0)
		s.logger.Info("face embedding failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("embedding capture: %w", err)
	}
	s.logger.Debug("face embedded", "dimension", emb.Dim(), "duration", time.Since(start))

	return s.match(ctx, emb)
}

// AuthenticateEmbedding matches a descriptor computed by the client.
func (s *Service) AuthenticateEmbedding(ctx context.Context, emb facematch.Embedding) (*Result, error) {
	return s.match(ctx, emb)
}

func (s *Service) match(ctx context.Context, emb facematch.Embedding) (*Result, error) {
	res, err := s.matcher.Match(emb)
	if err != nil {
		s.record(ctx, outcomeFor(err), "", 0)
		return nil, err
	}

	if !res.Matched {
		// rejections never disclose the closest distance
		s.record(ctx, database.OutcomeRejected, "", 0)
		s.logger.Info("authentication rejected", "roster_size", s.matcher.Len())
		return nil, ErrNotRecognized
	}

	result := &Result{Identity: res.Identity, Distance: res.Distance}
	if s.sessions != nil {
		session, err := s.sessions.CreateSession(ctx, res.Identity, res.Distance)
		if err != nil {
			s.record(ctx, database.OutcomeError, res.Identity, res.Distance)
			return nil, fmt.Errorf("creating session: %w", err)
		}
		result.Session = session
	}

	s.record(ctx, database.OutcomeAccepted, res.Identity, res.Distance)
	s.logger.Info("authentication accepted", "identity", res.Identity, "distance", res.Distance)
	return result, nil
}

// record stores an attempt. Failures are logged and never change the outcome.
func (s *Service) record(ctx context.Context, outcome, identity string, distance float64) {
	if s.attempts == nil {
		return
	}
	err := s.attempts.RecordAttempt(ctx, database.AuthAttempt{
		Identity:   identity,
		Distance:   distance,
		Outcome:    outcome,
		RemoteAddr: RemoteAddrFromContext(ctx),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to record authentication attempt", "outcome", outcome, "error", err)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, embedder.ErrNoFace):
		return database.OutcomeNoFace
	case errors.Is(err, embedder.ErrMultipleFaces), errors.Is(err, facematch.ErrDimensionMismatch):
		return database.OutcomeInvalid
	default:
		return database.OutcomeError
	}
}

type contextKey string

const remoteAddrKey contextKey = "remote_addr"

// ContextWithRemoteAddr attaches the client address recorded with attempts.
func ContextWithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey, addr)
}

// RemoteAddrFromContext returns the client address, or "" if none was attached.
func RemoteAddrFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(remoteAddrKey).(string)
	return addr
}
