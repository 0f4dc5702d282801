// Package main implements the ragctl CLI for corpus ingestion and
// one-off queries against the local configuration.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML configuration file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "CLI for ragchatd corpus and query operations",
	Long: `ragctl is a command-line interface for operating on the ragchatd corpus.
It ingests PDF directories into the vector index and answers one-off
questions without going through the HTTP API.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}
