package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	providerMu              sync.RWMutex
	postgresReferenceReader func() ReferenceReader
	postgresReferenceWriter func() ReferenceWriter
	postgresAttemptWriter   func() AttemptWriter
	postgresInitialized     bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the command layer to avoid import cycles.
func RegisterPostgresBackend(
	refReader func() ReferenceReader,
	refWriter func() ReferenceWriter,
	attempts func() AttemptWriter,
) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresReferenceReader = refReader
	postgresReferenceWriter = refWriter
	postgresAttemptWriter = attempts
	postgresInitialized = true
}

// ResetBackend clears all registered constructors.
func ResetBackend() {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresReferenceReader = nil
	postgresReferenceWriter = nil
	postgresAttemptWriter = nil
	postgresInitialized = false
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return postgresInitialized
}

// GetReferenceReader returns a ReferenceReader from the PostgreSQL backend
func GetReferenceReader(ctx context.Context) (ReferenceReader, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresReferenceReader == nil {
		return nil, fmt.Errorf("PostgreSQL reference reader not registered")
	}
	return postgresReferenceReader(), nil
}

// GetReferenceWriter returns a ReferenceWriter from the PostgreSQL backend
func GetReferenceWriter(ctx context.Context) (ReferenceWriter, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresReferenceWriter == nil {
		return nil, fmt.Errorf("PostgreSQL reference writer not registered")
	}
	return postgresReferenceWriter(), nil
}

// GetAttemptWriter returns the registered AttemptWriter, or nil when attempts are not persisted.
func GetAttemptWriter(ctx context.Context) AttemptWriter {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if postgresAttemptWriter == nil {
		return nil
	}
	return postgresAttemptWriter()
}
