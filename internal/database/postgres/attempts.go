package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-auth/internal/database"
)

// AttemptRepository stores authentication attempts in PostgreSQL.
type AttemptRepository struct {
	pool *Pool
}

// NewAttemptRepository creates a new PostgreSQL attempt repository.
func NewAttemptRepository(pool *Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// RecordAttempt inserts an attempt. Missing ID and timestamp are filled in.
func (r *AttemptRepository) RecordAttempt(ctx context.Context, a database.AuthAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO auth_attempts (id, identity, distance, outcome, remote_addr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, a.ID, a.Identity, a.Distance, a.Outcome, a.RemoteAddr, a.CreatedAt); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns up to limit attempts, newest first.
func (r *AttemptRepository) RecentAttempts(ctx context.Context, limit int) ([]database.AuthAttempt, error) {
	query := `
		SELECT id, identity, distance, outcome, remote_addr, created_at
		FROM auth_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []database.AuthAttempt
	for rows.Next() {
		var a database.AuthAttempt
		if err := rows.Scan(&a.ID, &a.Identity, &a.Distance, &a.Outcome, &a.RemoteAddr, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
