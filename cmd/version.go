package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-auth/internal/embedder"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mustGetBool(cmd, "json") {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"version": Version,
				"commit":  CommitSHA,
				"built":   BuildDate,
				"go":      runtime.Version(),
				"dlib":    fmt.Sprint(embedder.DlibAvailable),
			})
		}
		fmt.Printf("face-auth %s\n", Version)
		fmt.Printf("  Commit: %s\n", CommitSHA)
		fmt.Printf("  Built:  %s\n", BuildDate)
		fmt.Printf("  Go:     %s\n", runtime.Version())
		fmt.Printf("  dlib:   %v\n", embedder.DlibAvailable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "Output as JSON")
}
