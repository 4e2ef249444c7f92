package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-auth/internal/config"
	"github.com/kozaktomas/face-auth/internal/constants"
	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/embedder"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/roster"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <dir>",
	Short: "Build a roster from a directory of face photos",
	Long: `Compute a reference embedding for every image in a directory.

The identity is derived from the file name: "Jan_Novák.jpg" becomes "jan-novak".
Each image must contain exactly one usable face. Files whose identity was
already enrolled from an earlier file (in name order) are reported and skipped,
so the resulting roster always loads.

Examples:
  # Write a YAML roster
  face-auth enroll ./people --out roster.yaml

  # Store references in PostgreSQL (DATABASE_URL)
  face-auth enroll ./people --db

  # Use more workers
  face-auth enroll ./people --out roster.yaml --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("out", "", "Write the roster to this YAML file")
	enrollCmd.Flags().Bool("db", false, "Save references to PostgreSQL")
	enrollCmd.Flags().Int("concurrency", constants.WorkerPoolSize, "Number of parallel workers")
	enrollCmd.Flags().String("model", "", "Model name recorded with the references")
}

var enrollExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// enrollResult is the outcome for one image
type enrollResult struct {
	Path      string
	Identity  string
	Embedding facematch.Embedding
	Err       error
}

// listEnrollImages returns supported image files in dir, sorted by name.
func listEnrollImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(enrollExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// embedAll runs the embedder over paths with a bounded worker pool.
// Results keep the order of paths.
func embedAll(ctx context.Context, emb embedder.FaceEmbedder, paths []string, concurrency int, progress func()) []enrollResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]enrollResult, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer progress()

			results[i] = enrollResult{Path: path, Identity: facematch.IdentityFromFilename(path)}
			data, err := os.ReadFile(path)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Embedding, results[i].Err = emb.EmbedFace(ctx, data)
		}()
	}

	wg.Wait()
	return results
}

// collectEntries turns results into roster entries. Failed images and
// repeated identities are returned as skipped messages.
func collectEntries(results []enrollResult) ([]facematch.ReferenceEntry, []string) {
	var entries []facematch.ReferenceEntry
	var skipped []string
	seen := make(map[string]string)

	for _, r := range results {
		switch {
		case r.Err != nil:
			skipped = append(skipped, fmt.Sprintf("%s: %v", r.Path, r.Err))
		case r.Identity == "":
			skipped = append(skipped, fmt.Sprintf("%s: cannot derive identity from file name", r.Path))
		case seen[r.Identity] != "":
			skipped = append(skipped, fmt.Sprintf("%s: identity %q already enrolled from %s", r.Path, r.Identity, seen[r.Identity]))
		default:
			seen[r.Identity] = r.Path
			entries = append(entries, facematch.ReferenceEntry{Identity: r.Identity, Embedding: r.Embedding})
		}
	}
	return entries, skipped
}

func runEnroll(cmd *cobra.Command, args []string) error {
	outPath := mustGetString(cmd, "out")
	toDB := mustGetBool(cmd, "db")
	concurrency := mustGetInt(cmd, "concurrency")
	model := mustGetString(cmd, "model")

	if outPath == "" && !toDB {
		return errors.New("specify --out and/or --db")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := listEnrollImages(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", args[0])
	}

	ctx := context.Background()
	b := &backend{}
	defer b.Close()

	if err := b.openEmbedder(&cfg.Embedding); err != nil {
		return err
	}

	fmt.Printf("Enrolling %d images with %d workers\n", len(paths), concurrency)
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Computing embeddings"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
	results := embedAll(ctx, b.embedder, paths, concurrency, func() { _ = bar.Add(1) })
	fmt.Println()

	entries, skipped := collectEntries(results)
	for _, s := range skipped {
		fmt.Printf("  skipped %s\n", s)
	}
	if len(entries) == 0 {
		return errors.New("no faces enrolled")
	}

	// Validate the roster the same way the server will load it.
	m, err := facematch.NewMatcher(cfg.Match.Threshold)
	if err != nil {
		return err
	}
	if err := m.Load(entries); err != nil {
		return fmt.Errorf("enrolled roster is invalid: %w", err)
	}

	if outPath != "" {
		if err := roster.WriteFile(outPath, &roster.File{Model: model, Identities: entries}); err != nil {
			return err
		}
		fmt.Printf("Wrote %d identities to %s\n", len(entries), outPath)
	}

	if toDB {
		saved, err := saveReferences(ctx, b, cfg.Database, entries, model)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d identities to PostgreSQL\n", saved)
	}

	fmt.Printf("\nCompleted: %d enrolled, %d skipped (dimension %d)\n", len(entries), len(skipped), m.Dim())
	return nil
}

// saveReferences upserts entries into the PostgreSQL roster.
func saveReferences(ctx context.Context, b *backend, cfg config.DatabaseConfig, entries []facematch.ReferenceEntry, model string) (int, error) {
	if err := b.openPostgres(ctx, &cfg); err != nil {
		return 0, err
	}
	writer, err := database.GetReferenceWriter(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		ref := database.StoredReference{
			Identity:  e.Identity,
			Embedding: e.Embedding,
			Model:     model,
			Dim:       e.Embedding.Dim(),
		}
		if _, err := writer.SaveReference(ctx, ref); err != nil {
			return i, fmt.Errorf("failed to save %s: %w", e.Identity, err)
		}
	}
	return len(entries), nil
}
