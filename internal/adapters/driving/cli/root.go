// Package cli provides the vault-rag command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/config"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// version is reported by the version command and the HTTP API.
var version = "dev"

var (
	verbose      bool
	envFile      string
	localEnvFile string
)

// Services injected by tests. When nil, commands build them from settings.
var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
)

var rootCmd = &cobra.Command{
	Use:   "vault-rag",
	Short: "Retrieval over a Markdown vault",
	Long: `vault-rag indexes a directory of Markdown notes into a vector store and
serves similarity retrieval over it via HTTP, MCP and the command line.

Settings are read from .env and local.env, then the environment, then flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "base env file")
	rootCmd.PersistentFlags().StringVar(&localEnvFile, "local-env-file", config.DefaultLocalEnvFile,
		"local env file, overrides the base env file")
}

// SetVersion sets the version reported by the CLI.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
