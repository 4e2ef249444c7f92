package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/logger"
	"github.com/kozaktomas/face-auth/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Inspect and manage the reference roster",
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	RunE:  runRosterList,
}

var rosterAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report identity pairs that are closer than the match threshold",
	Long: `Find pairs of enrolled identities whose reference embeddings lie closer
than the threshold. A capture near such a pair could match either person,
so one of the references should be re-enrolled.`,
	RunE: runRosterAudit,
}

var rosterImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the PostgreSQL roster with a YAML roster",
	Long: `Validate a YAML roster and replace every reference stored in PostgreSQL
with its entries, in one transaction. The file is checked with the same rules
the server applies when loading, so a bad file never reaches the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runRosterImport,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterListCmd, rosterAuditCmd, rosterImportCmd)

	rosterListCmd.Flags().Bool("json", false, "Output as JSON")
	rosterAuditCmd.Flags().Float64("threshold", -1, "Distance below which a pair is reported (default FACE_MATCH_THRESHOLD)")
	rosterAuditCmd.Flags().Bool("json", false, "Output as JSON")
	rosterImportCmd.Flags().String("model", "", "Model name recorded with the references (defaults to the file's model)")
}

// loadRoster reads the configured roster into a matcher.
func loadRoster(ctx context.Context) (*facematch.Matcher, roster.Source, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	b := &backend{}
	if err := b.openSource(ctx, cfg); err != nil {
		b.Close()
		return nil, nil, nil, err
	}
	m, err := facematch.NewMatcher(cfg.Match.Threshold)
	if err != nil {
		b.Close()
		return nil, nil, nil, err
	}
	if _, err := roster.NewLoader(b.source, m, logger.Nop()).Reload(ctx); err != nil {
		b.Close()
		return nil, nil, nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return m, b.source, b.Close, nil
}

func runRosterList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	m, src, closeFn, err := loadRoster(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"source":     src.Name(),
			"dimension":  m.Dim(),
			"identities": m.Identities(),
		})
	}

	fmt.Printf("Roster %s: %d identities, dimension %d\n\n", src.Name(), m.Len(), m.Dim())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tIDENTITY")
	for i, id := range m.Identities() {
		fmt.Fprintf(w, "%d\t%s\n", i+1, id)
	}
	return w.Flush()
}

func runRosterAudit(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	jsonOutput := mustGetBool(cmd, "json")

	m, _, closeFn, err := loadRoster(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	if threshold < 0 {
		threshold = m.Threshold()
	}
	pairs, err := roster.Audit(m.Entries(), threshold)
	if err != nil {
		return err
	}

	if jsonOutput {
		if pairs == nil {
			pairs = []roster.AuditPair{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	}

	if len(pairs) == 0 {
		fmt.Printf("No identity pairs closer than %.4f among %d identities\n", threshold, m.Len())
		return nil
	}

	fmt.Printf("%d ambiguous pairs (threshold %.4f)\n\n", len(pairs), threshold)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIRST\tSECOND\tDISTANCE")
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", p.First, p.Second, p.Distance)
	}
	return w.Flush()
}

func runRosterImport(cmd *cobra.Command, args []string) error {
	model := mustGetString(cmd, "model")

	f, err := roster.ReadFile(args[0])
	if err != nil {
		return err
	}
	if model == "" {
		model = f.Model
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := facematch.NewMatcher(cfg.Match.Threshold)
	if err != nil {
		return err
	}
	if err := m.Load(f.Entries()); err != nil {
		return fmt.Errorf("roster file is invalid: %w", err)
	}

	ctx := context.Background()
	b := &backend{}
	defer b.Close()
	if err := b.openPostgres(ctx, &cfg.Database); err != nil {
		return err
	}
	writer, err := database.GetReferenceWriter(ctx)
	if err != nil {
		return err
	}

	refs := make([]database.StoredReference, 0, m.Len())
	for _, e := range m.Entries() {
		refs = append(refs, database.StoredReference{
			Identity:  e.Identity,
			Embedding: e.Embedding,
			Model:     model,
			Dim:       e.Embedding.Dim(),
		})
	}
	if err := writer.ReplaceReferences(ctx, refs); err != nil {
		return fmt.Errorf("failed to import roster: %w", err)
	}

	count, err := writer.CountReferences(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d identities (dimension %d), %d references stored\n", len(refs), m.Dim(), count)
	return nil
}
