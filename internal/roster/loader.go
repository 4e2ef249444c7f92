package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// ReloadResult describes the roster that is now in service.
type ReloadResult struct {
	Source   string        `json:"source"`
	Count    int           `json:"count"`
	Dim      int           `json:"dimension"`
	Duration time.Duration `json:"-"`
}

// Loader moves entries from a Source into a Matcher.
type Loader struct {
	source  Source
	matcher *facematch.Matcher
	logger  *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(source Source, matcher *facematch.Matcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, matcher: matcher, logger: logger}
}

// Source returns the configured roster source.
func (l *Loader) Source() Source {
	return l.source
}

// Reload fetches the roster and swaps it into the matcher.
// On failure the previously loaded roster stays in service and the matcher error is returned unwrapped.
func (l *Loader) Reload(ctx context.Context) (ReloadResult, error) {
	start := time.Now()

	entries, err := l.source.Entries(ctx)
	if err != nil {
		l.logger.Error("roster fetch failed", "source", l.source.Name(), "error", err)
		return ReloadResult{}, fmt.Errorf("roster source %s: %w", l.source.Name(), err)
	}

	if err := l.matcher.Load(entries); err != nil {
		l.logger.Error("roster rejected", "source", l.source.Name(), "entries", len(entries), "error", err)
		return ReloadResult{}, err
	}

	res := ReloadResult{
		Source:   l.source.Name(),
		Count:    l.matcher.Len(),
		Dim:      l.matcher.Dim(),
		Duration: time.Since(start),
	}
	l.logger.Info("roster loaded",
		"source", res.Source,
		"identities", res.Count,
		"dimension", res.Dim,
		"duration", res.Duration,
	)
	return res, nil
}
