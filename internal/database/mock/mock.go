// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

// MockReferenceRepository is an in-memory database.ReferenceWriter
type MockReferenceRepository struct {
	mu     sync.RWMutex
	refs   []database.StoredReference
	nextID int64

	// Error injection
	ListError    error
	CountError   error
	SaveError    error
	DeleteError  error
	ReplaceError error
}

// NewMockReferenceRepository creates a new mock reference repository
func NewMockReferenceRepository() *MockReferenceRepository {
	return &MockReferenceRepository{nextID: 1}
}

// AddReference appends a reference without going through SaveReference
func (m *MockReferenceRepository) AddReference(identity string, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs = append(m.refs, m.newRef(database.StoredReference{Identity: identity, Embedding: embedding}))
}

func (m *MockReferenceRepository) newRef(ref database.StoredReference) database.StoredReference {
	ref.ID = m.nextID
	ref.Dim = len(ref.Embedding)
	ref.Embedding = slices.Clone(ref.Embedding)
	ref.CreatedAt = time.Now()
	m.nextID++
	return ref
}

// ListReferences returns references in insertion order
func (m *MockReferenceRepository) ListReferences(ctx context.Context) ([]database.StoredReference, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.refs), nil
}

// CountReferences returns the number of references
func (m *MockReferenceRepository) CountReferences(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.refs), nil
}

// SaveReference inserts or replaces in place
func (m *MockReferenceRepository) SaveReference(ctx context.Context, ref database.StoredReference) (int64, error) {
	if m.SaveError != nil {
		return 0, m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.refs {
		if m.refs[i].Identity == ref.Identity {
			m.refs[i].Embedding = slices.Clone(ref.Embedding)
			m.refs[i].Dim = len(ref.Embedding)
			m.refs[i].Model = ref.Model
			return m.refs[i].ID, nil
		}
	}
	stored := m.newRef(ref)
	m.refs = append(m.refs, stored)
	return stored.ID, nil
}

// DeleteReference removes an identity
func (m *MockReferenceRepository) DeleteReference(ctx context.Context, identity string) (bool, error) {
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.refs {
		if m.refs[i].Identity == identity {
			m.refs = slices.Delete(m.refs, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

// ReplaceReferences swaps the whole roster
func (m *MockReferenceRepository) ReplaceReferences(ctx context.Context, refs []database.StoredReference) error {
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs = m.refs[:0]
	for _, ref := range refs {
		m.refs = append(m.refs, m.newRef(ref))
	}
	return nil
}

// MockAttemptRepository records attempts in memory
type MockAttemptRepository struct {
	mu       sync.Mutex
	attempts []database.AuthAttempt

	// Error injection
	RecordError error
}

// NewMockAttemptRepository creates a new mock attempt repository
func NewMockAttemptRepository() *MockAttemptRepository {
	return &MockAttemptRepository{}
}

// RecordAttempt stores an attempt
func (m *MockAttemptRepository) RecordAttempt(ctx context.Context, a database.AuthAttempt) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

// RecentAttempts returns up to limit attempts, newest first
func (m *MockAttemptRepository) RecentAttempts(ctx context.Context, limit int) ([]database.AuthAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.attempts)
	slices.Reverse(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Attempts returns all recorded attempts in order
func (m *MockAttemptRepository) Attempts() []database.AuthAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.attempts)
}

// MockSessionRepository is an in-memory middleware.SessionRepository
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]middleware.StoredSession

	// Error injection
	SaveError error
	GetError  error
}

// NewMockSessionRepository creates a new mock session repository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]middleware.StoredSession)}
}

// Save stores a session
func (m *MockSessionRepository) Save(ctx context.Context, s middleware.StoredSession) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get returns an unexpired session or nil
func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*middleware.StoredSession, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &s, nil
}

// Delete removes a session
func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// DeleteExpired removes expired sessions
func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions
func (m *MockSessionRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
