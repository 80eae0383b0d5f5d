package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// errNotReady is returned by the health command when the index cannot load.
var errNotReady = errors.New("index not ready")

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the index can be loaded",
	Long: `Attempts to load the persisted index and reports the same status as
GET /health. Exits non-zero when the index is not ready.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	svc := newRuntime(settings).retrieval()
	defer svc.Close() //nolint:errcheck

	if err := svc.Load(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyLoaded) {
		logger.Debug("Index not loaded: %v", err)
	}
	status := svc.Health(ctx)

	if healthJSON {
		if err := outputJSON(cmd, status); err != nil {
			return err
		}
	} else {
		outputHealth(cmd, status, settings.Embedding.Provider)
	}

	if !status.Ready() {
		return errNotReady
	}
	return nil
}

func outputHealth(cmd *cobra.Command, status domain.HealthStatus, provider domain.AIProvider) {
	s := newStyles()

	state := s.Success.Render(status.Status)
	if !status.Ready() {
		state = s.Error.Render(status.Status)
	}

	collections := strings.Join(status.Collections, ", ")
	if collections == "" {
		collections = s.Muted.Render("none")
	}

	cmd.Println(s.row("Status", state))
	cmd.Println(s.row("Collections", collections))
	cmd.Println(s.row("Index", yesNo(status.IndexExists)))
	cmd.Println(s.row("Vector store", yesNo(status.ChromaExists)))
	cmd.Println(s.row("Model", status.EmbeddingModel))
	cmd.Println(s.row("Provider", provider.Description()))
}

func yesNo(b bool) string {
	if b {
		return "present"
	}
	return "missing"
}
