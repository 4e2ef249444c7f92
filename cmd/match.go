package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-auth/internal/auth"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/logger"
	"github.com/kozaktomas/face-auth/internal/roster"
)

var matchCmd = &cobra.Command{
	Use:   "match [image]",
	Short: "Authenticate a single image or embedding against the roster",
	Long: `Match one capture against the configured roster and print the result.

Examples:
  # Match a photo (uses the configured embedding backend)
  face-auth match capture.jpg

  # Match a descriptor computed elsewhere
  face-auth match --embedding query.json

  # Stricter threshold, JSON output
  face-auth match capture.jpg --threshold 0.45 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("embedding", "", "JSON file with the query embedding (array or {\"embedding\": [...]})")
	matchCmd.Flags().Float64("threshold", -1, "Override FACE_MATCH_THRESHOLD (lower = stricter)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// matchOutput is the --json result of the match command
type matchOutput struct {
	Matched  bool    `json:"matched"`
	Identity string  `json:"identity,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// readEmbeddingFile accepts either a bare JSON array or an object with an "embedding" key.
func readEmbeddingFile(path string) (facematch.Embedding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding file: %w", err)
	}

	var emb facematch.Embedding
	if err := json.Unmarshal(data, &emb); err == nil {
		return emb, nil
	}
	var wrapped struct {
		Embedding facematch.Embedding `json:"embedding"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse embedding file: %w", err)
	}
	return wrapped.Embedding, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	embeddingPath := mustGetString(cmd, "embedding")
	threshold := mustGetFloat64(cmd, "threshold")
	jsonOutput := mustGetBool(cmd, "json")

	if (len(args) == 0) == (embeddingPath == "") {
		return errors.New("provide either an image path or --embedding")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if threshold >= 0 {
		cfg.Match.Threshold = threshold
	}

	// Logs go to stderr only when debugging so the result stays readable.
	log := logger.Nop()
	if debug {
		log = newLogger(cfg)
	}

	ctx := context.Background()
	b := &backend{}
	defer b.Close()

	if err := b.openSource(ctx, cfg); err != nil {
		return err
	}
	matcher, err := facematch.NewMatcher(cfg.Match.Threshold)
	if err != nil {
		return err
	}
	if _, err := roster.NewLoader(b.source, matcher, log).Reload(ctx); err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	var (
		res     *auth.Result
		authErr error
	)
	if embeddingPath != "" {
		emb, err := readEmbeddingFile(embeddingPath)
		if err != nil {
			return err
		}
		res, authErr = auth.NewService(matcher, auth.WithLogger(log)).AuthenticateEmbedding(ctx, emb)
	} else {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		if err := b.openEmbedder(&cfg.Embedding); err != nil {
			return err
		}
		svc := auth.NewService(matcher, auth.WithEmbedder(b.embedder), auth.WithLogger(log))
		res, authErr = svc.Authenticate(ctx, image)
	}

	return printMatch(res, authErr, jsonOutput)
}

// printMatch reports the outcome. A rejected face is a result, not a command failure.
func printMatch(res *auth.Result, err error, jsonOutput bool) error {
	var out matchOutput
	switch {
	case err == nil:
		out = matchOutput{Matched: true, Identity: res.Identity, Distance: res.Distance}
	case errors.Is(err, auth.ErrNotRecognized):
	default:
		if !jsonOutput {
			return err
		}
		out.Error = err.Error()
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Matched {
		fmt.Printf("Matched %s (distance %.4f)\n", out.Identity, out.Distance)
	} else {
		fmt.Println("No match")
	}
	return nil
}
