package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-auth/internal/auth"
	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/database/postgres"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/roster"
	"github.com/kozaktomas/face-auth/internal/web"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authentication server",
	Long: `Start the Face Auth HTTP server.

The roster is loaded once at startup and can be reloaded without a restart
through POST /api/v1/roster/reload. When DATABASE_URL is set, sessions and
authentication attempts are persisted to PostgreSQL.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
}

// applyServeFlags lets command-line flags take precedence over the environment.
func applyServeFlags(cmd *cobra.Command, port *int, host, secret *string) {
	if p := mustGetInt(cmd, "port"); p > 0 {
		*port = p
	}
	if h := mustGetString(cmd, "host"); h != "" {
		*host = h
	}
	if s := mustGetString(cmd, "session-secret"); s != "" {
		*secret = s
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Web.Port, &cfg.Web.Host, &cfg.Web.SessionSecret)
	log := newLogger(cfg)

	ctx := context.Background()
	b := &backend{}
	defer b.Close()

	if cfg.Database.URL != "" {
		log.Info("connecting to PostgreSQL")
		if err := b.openPostgres(ctx, &cfg.Database); err != nil {
			return err
		}
	}
	if err := b.openSource(ctx, cfg); err != nil {
		return err
	}
	if err := b.openEmbedder(&cfg.Embedding); err != nil {
		return err
	}

	matcher, err := facematch.NewMatcher(cfg.Match.Threshold)
	if err != nil {
		return err
	}
	loader := roster.NewLoader(b.source, matcher, log)
	if _, err := loader.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if matcher.Len() == 0 {
		log.Warn("roster is empty, every login will be rejected")
	}

	var sessionRepo middleware.SessionRepository
	if b.pgPool != nil {
		sessionRepo = postgres.NewSessionRepository(b.pgPool)
		log.Info("session persistence enabled", "backend", "postgres")
	}
	sessions := middleware.NewSessionManager(cfg.Web.SessionSecret, sessionRepo, log)

	opts := []auth.Option{
		auth.WithEmbedder(b.embedder),
		auth.WithSessions(sessions),
		auth.WithLogger(log),
	}
	deps := web.Deps{
		Sessions: sessions,
		Loader:   loader,
		Pinger:   b.pinger,
		Logger:   log,
	}
	if attempts := database.GetAttemptWriter(ctx); attempts != nil {
		opts = append(opts, auth.WithAttempts(attempts))
		deps.Attempts = postgres.NewAttemptRepository(b.pgPool)
	}
	deps.Auth = auth.NewService(matcher, opts...)

	server := web.NewServer(cfg, deps)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", "error", err)
		}
	}()

	log.Info("face auth ready",
		"addr", fmt.Sprintf("http://%s:%d", cfg.Web.Host, cfg.Web.Port),
		"roster", b.source.Name(),
		"identities", matcher.Len(),
		"threshold", matcher.Threshold(),
		"embedder", cfg.Embedding.Backend,
	)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
