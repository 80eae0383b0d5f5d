package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/adapters/driving/api"
	"github.com/custodia-labs/vault-rag/internal/config"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP retrieval API",
	Long: `Starts the HTTP API serving GET /health, POST /retrieve and GET /metrics.

The index is loaded before the listener starts. A missing index, an
unreachable embedding provider or a model that does not match the indexed
collection aborts startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags = []flagKey{
	{flag: "host", key: config.KeyHost},
	{flag: "port", key: config.KeyPort},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides HOST)")
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd, serveFlags...)
	if err != nil {
		return err
	}
	rt := newRuntime(settings)
	svc := rt.retrieval()
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close retrieval service: %v", err)
		}
	}()

	if err := loadIndex(ctx, svc); err != nil {
		return err
	}

	server := api.NewServer(svc,
		api.WithVersion(version),
		api.WithMaxTopK(settings.MaxTopK),
		api.WithMetricsHandler(rt.metrics.Handler()),
	)

	logger.Info("Listening on http://%s", settings.Address())
	return server.Run(ctx, settings.Address())
}

// loadIndex loads the index before a server starts. Any failure is a
// startup error.
func loadIndex(ctx context.Context, svc driving.RetrievalService) error {
	logger.Section("Loading index")
	if err := svc.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			logger.Error("No index found. Run 'vault-rag ingest' first.")
		}
		return fmt.Errorf("loading index: %w", err)
	}
	logger.Info("Index loaded, retrieval ready")
	return nil
}
