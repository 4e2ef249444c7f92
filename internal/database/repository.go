package database

import (
	"context"
)

// ReferenceReader provides read-only access to enrolled reference embeddings
type ReferenceReader interface {
	// ListReferences returns all references in enrollment order
	ListReferences(ctx context.Context) ([]StoredReference, error)
	// CountReferences returns the number of stored references
	CountReferences(ctx context.Context) (int, error)
}

// ReferenceWriter provides write access to reference embeddings
type ReferenceWriter interface {
	ReferenceReader

	// SaveReference inserts a reference, or replaces the embedding of an existing identity.
	// Replacing keeps the original enrollment position.
	SaveReference(ctx context.Context, ref StoredReference) (int64, error)

	// DeleteReference removes the reference for an identity. Returns false if none existed.
	DeleteReference(ctx context.Context, identity string) (bool, error)

	// ReplaceReferences atomically swaps the whole roster for refs, in order.
	ReplaceReferences(ctx context.Context, refs []StoredReference) error
}

// AttemptWriter records authentication attempts
type AttemptWriter interface {
	RecordAttempt(ctx context.Context, attempt AuthAttempt) error
}

// AttemptReader reads back recorded authentication attempts
type AttemptReader interface {
	// RecentAttempts returns up to limit attempts, newest first
	RecentAttempts(ctx context.Context, limit int) ([]AuthAttempt, error)
}
