package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-auth/internal/database"
)

// ReferenceRepository provides PostgreSQL-backed storage for enrolled reference embeddings.
type ReferenceRepository struct {
	pool *Pool
}

// NewReferenceRepository creates a new PostgreSQL reference repository.
func NewReferenceRepository(pool *Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// ListReferences returns all references in enrollment order.
func (r *ReferenceRepository) ListReferences(ctx context.Context) ([]database.StoredReference, error) {
	query := `
		SELECT id, identity, embedding, model, dim, created_at
		FROM face_references
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// CountReferences returns the number of stored references.
func (r *ReferenceRepository) CountReferences(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_references").Scan(&count); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return count, nil
}

// SaveReference inserts a reference or replaces the embedding of an existing identity.
func (r *ReferenceRepository) SaveReference(ctx context.Context, ref database.StoredReference) (int64, error) {
	query := `
		INSERT INTO face_references (identity, embedding, model, dim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		ref.Identity, pgvector.NewVector(ref.Embedding), ref.Model, len(ref.Embedding),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save reference %q: %w", ref.Identity, err)
	}
	return id, nil
}

// DeleteReference removes the reference for an identity.
func (r *ReferenceRepository) DeleteReference(ctx context.Context, identity string) (bool, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM face_references WHERE identity = $1", identity)
	if err != nil {
		return false, fmt.Errorf("delete reference %q: %w", identity, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}

// ReplaceReferences swaps the whole roster in a single transaction.
// IDs are assigned in slice order, so enrollment order follows refs.
func (r *ReferenceRepository) ReplaceReferences(ctx context.Context, refs []database.StoredReference) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM face_references"); err != nil {
		return fmt.Errorf("clear references: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO face_references (identity, embedding, model, dim)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.ExecContext(ctx,
			ref.Identity, pgvector.NewVector(ref.Embedding), ref.Model, len(ref.Embedding),
		); err != nil {
			return fmt.Errorf("insert reference %q: %w", ref.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit references: %w", err)
	}
	return nil
}

func scanReferences(rows *sql.Rows) ([]database.StoredReference, error) {
	var refs []database.StoredReference
	for rows.Next() {
		var ref database.StoredReference
		var vec pgvector.Vector
		if err := rows.Scan(&ref.ID, &ref.Identity, &vec, &ref.Model, &ref.Dim, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		ref.Embedding = vec.Slice()
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return refs, nil
}
