package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-auth/internal/constants"
)

const (
	sessionCookieName = "face_auth_session"
	devSessionSecret  = "face-auth-dev-secret-change-in-production"
)

// Session represents an authenticated face session
type Session struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Distance  float64   `json:"distance"` // distance of the matching capture
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoredSession is the persisted form of a session
type StoredSession struct {
	ID        string
	Identity  string
	Distance  float64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository persists sessions across restarts
type SessionRepository interface {
	Save(ctx context.Context, s StoredSession) error
	Get(ctx context.Context, sessionID string) (*StoredSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionManager handles session creation and validation
type SessionManager struct {
	secret   []byte
	sessions map[string]*Session
	mu       sync.RWMutex
	repo     SessionRepository // optional
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionManager creates a new session manager. repo may be nil for in-memory sessions.
func NewSessionManager(secret string, repo SessionRepository, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	if secret == "" {
		logger.Warn("WEB_SESSION_SECRET is not set, signing sessions with the development secret")
		secret = devSessionSecret
	}
	return &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession creates a new session for a recognized identity
func (sm *SessionManager) CreateSession(ctx context.Context, identity string, distance float64) (*Session, error) {
	now := sm.now()
	session := &Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		Distance:  distance,
		CreatedAt: now,
		ExpiresAt: now.Add(constants.SessionDuration),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.Save(ctx, toStored(session)); err != nil {
			// the in-memory session still works for this process
			sm.logger.Warn("failed to persist session", "identity", identity, "error", err)
		}
	}

	return session, nil
}

// GetSession retrieves a session by ID, falling back to the repository on a cache miss
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !ok && sm.repo != nil {
		stored, err := sm.repo.Get(ctx, sessionID)
		if err != nil {
			sm.logger.Warn("failed to load session", "error", err)
			return nil
		}
		if stored != nil {
			session = fromStored(stored)
			sm.mu.Lock()
			sm.sessions[sessionID] = session
			sm.mu.Unlock()
			ok = true
		}
	}
	if !ok {
		return nil
	}

	if sm.now().After(session.ExpiresAt) {
		sm.DeleteSession(ctx, sessionID)
		return nil
	}

	return session
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.Delete(ctx, sessionID); err != nil {
			sm.logger.Warn("failed to delete persisted session", "error", err)
		}
	}
}

// Count returns the number of cached sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Cleanup drops expired sessions from memory and the repository
func (sm *SessionManager) Cleanup(ctx context.Context) {
	now := sm.now()
	removed := 0

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
			removed++
		}
	}
	sm.mu.Unlock()

	if sm.repo != nil {
		n, err := sm.repo.DeleteExpired(ctx)
		if err != nil {
			sm.logger.Warn("failed to delete expired sessions", "error", err)
		} else {
			removed += int(n)
		}
	}

	if removed > 0 {
		sm.logger.Debug("expired sessions removed", "count", removed)
	}
}

// StartCleanup runs Cleanup every interval until ctx is cancelled
func (sm *SessionManager) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.Cleanup(ctx)
			}
		}
	}()
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(constants.SessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	// Try cookie first
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		parts := strings.SplitN(cookie.Value, ".", 2)
		if len(parts) == 2 {
			sessionID := parts[0]
			signature := parts[1]
			if sm.verifySignature(sessionID, signature) {
				if session := sm.GetSession(r.Context(), sessionID); session != nil {
					return session
				}
			}
		}
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		sessionID := strings.TrimPrefix(authHeader, "Bearer ")
		if session := sm.GetSession(r.Context(), sessionID); session != nil {
			return session
		}
	}

	return nil
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func toStored(s *Session) StoredSession {
	return StoredSession{
		ID:        s.ID,
		Identity:  s.Identity,
		Distance:  s.Distance,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func fromStored(s *StoredSession) *Session {
	return &Session{
		ID:        s.ID,
		Identity:  s.Identity,
		Distance:  s.Distance,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// SessionData is a helper struct for JSON responses
type SessionData struct {
	SessionID string `json:"session_id"`
	Identity  string `json:"identity"`
	ExpiresAt string `json:"expires_at"`
}

// ToJSON returns the session data for JSON response
func (s *Session) ToJSON() SessionData {
	return SessionData{
		SessionID: s.ID,
		Identity:  s.Identity,
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
	}
}

// MarshalJSON implements json.Marshaler
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}
