//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/face-auth/internal/config"
	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestReferenceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewReferenceRepository(pool)

	t.Run("SaveAndList", func(t *testing.T) {
		for _, ref := range []database.StoredReference{
			{Identity: "alice", Embedding: []float32{0, 0, 0}, Model: "buffalo_l"},
			{Identity: "bob", Embedding: []float32{1, 1, 1}, Model: "buffalo_l"},
		} {
			if _, err := repo.SaveReference(ctx, ref); err != nil {
				t.Fatalf("Failed to save reference: %v", err)
			}
		}

		refs, err := repo.ListReferences(ctx)
		if err != nil {
			t.Fatalf("Failed to list references: %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("Expected 2 references, got %d", len(refs))
		}
		if refs[0].Identity != "alice" || refs[1].Identity != "bob" {
			t.Errorf("Expected enrollment order [alice bob], got [%s %s]", refs[0].Identity, refs[1].Identity)
		}
		if refs[1].Dim != 3 || refs[1].Embedding[2] != 1 {
			t.Errorf("Unexpected stored embedding: dim=%d %v", refs[1].Dim, refs[1].Embedding)
		}
	})

	t.Run("SaveExistingKeepsOrder", func(t *testing.T) {
		if _, err := repo.SaveReference(ctx, database.StoredReference{
			Identity: "alice", Embedding: []float32{0.5, 0.5, 0.5},
		}); err != nil {
			t.Fatalf("Failed to update reference: %v", err)
		}

		refs, err := repo.ListReferences(ctx)
		if err != nil {
			t.Fatalf("Failed to list references: %v", err)
		}
		if len(refs) != 2 || refs[0].Identity != "alice" {
			t.Fatalf("Expected alice to stay first, got %+v", refs)
		}
		if refs[0].Embedding[0] != 0.5 {
			t.Errorf("Expected updated embedding, got %v", refs[0].Embedding)
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.CountReferences(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2, got %d", count)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := repo.DeleteReference(ctx, "bob")
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if !deleted {
			t.Error("Expected bob to be deleted")
		}
		deleted, err = repo.DeleteReference(ctx, "nobody")
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if deleted {
			t.Error("Expected no row for unknown identity")
		}
	})

	t.Run("Replace", func(t *testing.T) {
		err := repo.ReplaceReferences(ctx, []database.StoredReference{
			{Identity: "carol", Embedding: []float32{1, 2}},
			{Identity: "dave", Embedding: []float32{3, 4}},
			{Identity: "erin", Embedding: []float32{5, 6}},
		})
		if err != nil {
			t.Fatalf("Failed to replace: %v", err)
		}

		refs, err := repo.ListReferences(ctx)
		if err != nil {
			t.Fatalf("Failed to list references: %v", err)
		}
		want := []string{"carol", "dave", "erin"}
		if len(refs) != len(want) {
			t.Fatalf("Expected %d references, got %d", len(want), len(refs))
		}
		for i, id := range want {
			if refs[i].Identity != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, refs[i].Identity)
			}
		}
	})

	t.Run("ReplaceRollsBackOnDuplicate", func(t *testing.T) {
		err := repo.ReplaceReferences(ctx, []database.StoredReference{
			{Identity: "frank", Embedding: []float32{1, 1}},
			{Identity: "frank", Embedding: []float32{2, 2}},
		})
		if err == nil {
			t.Fatal("Expected unique violation")
		}

		count, err := repo.CountReferences(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected previous roster of 3 to survive, got %d", count)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)
	now := time.Now().UTC().Truncate(time.Second)

	live := middleware.StoredSession{ID: "live", Identity: "alice", Distance: 0.31, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := middleware.StoredSession{ID: "expired", Identity: "bob", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}

	for _, s := range []middleware.StoredSession{live, expired} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got == nil || got.Identity != "alice" || got.Distance != 0.31 {
		t.Errorf("Unexpected session: %+v", got)
	}

	got, err = repo.Get(ctx, "expired")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != nil {
		t.Error("Expected expired session to be hidden")
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("Failed to delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 expired session deleted, got %d", n)
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if got, _ := repo.Get(ctx, "live"); got != nil {
		t.Error("Expected session to be deleted")
	}
}

func TestAttemptRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAttemptRepository(pool)
	base := time.Now().Add(-time.Minute)

	attempts := []database.AuthAttempt{
		{Outcome: database.OutcomeNoFace, CreatedAt: base},
		{Outcome: database.OutcomeRejected, Distance: 0.8, CreatedAt: base.Add(time.Second)},
		{Identity: "alice", Outcome: database.OutcomeAccepted, Distance: 0.2, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, a := range attempts {
		if err := repo.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("Failed to record attempt: %v", err)
		}
	}

	recent, err := repo.RecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to read attempts: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(recent))
	}
	if recent[0].Outcome != database.OutcomeAccepted || recent[0].Identity != "alice" {
		t.Errorf("Expected newest attempt first, got %+v", recent[0])
	}
	if recent[1].Outcome != database.OutcomeRejected {
		t.Errorf("Expected rejected attempt second, got %+v", recent[1])
	}
	if recent[0].ID == "" {
		t.Error("Expected generated attempt ID")
	}
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{
		"001_references.sql",
		"002_sessions.sql",
		"003_auth_attempts.sql",
	}

	if len(applied) != len(expectedMigrations) {
		t.Errorf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}

	for i, expected := range expectedMigrations {
		if i < len(applied) && applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}

	// Migrating again is a no-op
	if err := pool.Migrate(ctx); err != nil {
		t.Errorf("Second migration run failed: %v", err)
	}
}
