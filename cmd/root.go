package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "face-auth",
	Short: "Face recognition login backed by a roster of reference embeddings",
	Long: `Face Auth authenticates people by comparing a face embedding against
an enrolled roster of reference embeddings. A capture is accepted when its
Euclidean distance to the closest reference is below the match threshold.

The roster can come from a YAML file, PostgreSQL (pgvector) or MariaDB.
Embeddings are computed by an InsightFace-style HTTP server or locally with dlib.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
