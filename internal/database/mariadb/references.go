package mariadb

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kozaktomas/face-auth/internal/database"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ReferenceRepository reads a roster kept in an existing MariaDB table.
// Descriptors are stored as little-endian float32 blobs, one row per identity:
//
//	CREATE TABLE face_references (
//	    id         BIGINT AUTO_INCREMENT PRIMARY KEY,
//	    identity   VARCHAR(255) NOT NULL UNIQUE,
//	    descriptor BLOB NOT NULL
//	);
type ReferenceRepository struct {
	pool  *Pool
	table string
}

// NewReferenceRepository creates a read-only reference repository over table.
func NewReferenceRepository(pool *Pool, table string) (*ReferenceRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid MariaDB table name %q", table)
	}
	return &ReferenceRepository{pool: pool, table: table}, nil
}

// ListReferences returns all references in enrollment order.
func (r *ReferenceRepository) ListReferences(ctx context.Context) ([]database.StoredReference, error) {
	query := fmt.Sprintf("SELECT id, identity, descriptor FROM `%s` ORDER BY id", r.table)

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	var refs []database.StoredReference
	for rows.Next() {
		var ref database.StoredReference
		var blob []byte
		if err := rows.Scan(&ref.ID, &ref.Identity, &blob); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		emb, err := database.DecodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref.Identity, err)
		}
		ref.Embedding = emb
		ref.Dim = len(emb)
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return refs, nil
}

// CountReferences returns the number of rows in the roster table.
func (r *ReferenceRepository) CountReferences(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM `%s`", r.table)
	if err := r.pool.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return count, nil
}
