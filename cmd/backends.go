package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kozaktomas/face-auth/internal/config"
	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/database/mariadb"
	"github.com/kozaktomas/face-auth/internal/database/postgres"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/logger"
	"github.com/kozaktomas/face-auth/internal/roster"
	"github.com/kozaktomas/face-auth/internal/web/handlers"
)

// loadConfig reads and validates the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := []logger.Option{logger.WithLevel(cfg.Log.Level), logger.WithJSON(cfg.Log.JSON)}
	if debug {
		opts = append(opts, logger.WithDebug(true))
	}
	l := logger.New(opts...)
	slog.SetDefault(l)
	return l
}

// backend bundles what a command built from the configuration so it can be closed in one place.
type backend struct {
	embedder embedder.FaceEmbedder
	pinger   handlers.Pinger // nil for the dlib backend
	source   roster.Source
	pgPool   *postgres.Pool
	closers  []io.Closer
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i].Close()
	}
}

func selectorFromConfig(cfg *config.EmbeddingConfig) embedder.Selector {
	return embedder.Selector{
		Policy:      embedder.Policy(cfg.FacePolicy),
		MinDetScore: cfg.MinDetScore,
	}
}

// openEmbedder creates the configured embedding backend.
func (b *backend) openEmbedder(cfg *config.EmbeddingConfig) error {
	sel := selectorFromConfig(cfg)
	switch cfg.Backend {
	case config.BackendDlib:
		d, err := embedder.NewDlibEmbedder(cfg.ModelsDir, sel)
		if err != nil {
			return fmt.Errorf("failed to load dlib models: %w", err)
		}
		b.embedder = d
		b.closers = append(b.closers, d)
	default:
		opts := []embedder.ClientOption{embedder.WithSelector(sel)}
		if cfg.Dim > 0 {
			opts = append(opts, embedder.WithExpectedDim(cfg.Dim))
		}
		c := embedder.NewClient(cfg.URL, opts...)
		b.embedder = c
		b.pinger = c
	}
	return nil
}

// openPostgres connects, migrates and registers the PostgreSQL repositories.
func (b *backend) openPostgres(ctx context.Context, cfg *config.DatabaseConfig) error {
	if b.pgPool != nil {
		return nil
	}
	if cfg.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	b.pgPool = pool
	b.closers = append(b.closers, pool)

	refRepo := postgres.NewReferenceRepository(pool)
	attemptRepo := postgres.NewAttemptRepository(pool)
	database.RegisterPostgresBackend(
		func() database.ReferenceReader { return refRepo },
		func() database.ReferenceWriter { return refRepo },
		func() database.AttemptWriter { return attemptRepo },
	)
	return nil
}

// openSource creates the configured roster source.
func (b *backend) openSource(ctx context.Context, cfg *config.Config) error {
	switch cfg.Roster.Source {
	case config.RosterSourcePostgres:
		if err := b.openPostgres(ctx, &cfg.Database); err != nil {
			return err
		}
		reader, err := database.GetReferenceReader(ctx)
		if err != nil {
			return err
		}
		b.source = roster.NewDatabaseSource(reader, "postgres")
	case config.RosterSourceMariaDB:
		pool, err := mariadb.NewPool(ctx, &cfg.MariaDB)
		if err != nil {
			return fmt.Errorf("failed to connect to MariaDB: %w", err)
		}
		b.closers = append(b.closers, pool)
		repo, err := mariadb.NewReferenceRepository(pool, cfg.MariaDB.Table)
		if err != nil {
			return err
		}
		b.source = roster.NewDatabaseSource(repo, "mariadb")
	default:
		b.source = roster.NewFileSource(cfg.Roster.File)
	}
	return nil
}
