package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// snippetLength is the maximum snippet length shown per match.
const snippetLength = 200

var (
	retrieveTopK int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve vault chunks for a query",
	Long: `Embeds the query and returns the most similar chunks from the index,
ranked by descending similarity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of chunks to return (default DEFAULT_TOP_K)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	svc, err := openRetrieval(ctx, newRuntime(settings))
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	resp, err := svc.Retrieve(ctx, args[0], retrieveTopK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputJSON(cmd, resp)
	}
	outputRetrieveTable(cmd, resp)
	return nil
}

// openRetrieval returns a loaded retrieval service.
func openRetrieval(ctx context.Context, rt *runtime) (driving.RetrievalService, error) {
	svc := rt.retrieval()
	if err := svc.Load(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyLoaded) {
		_ = svc.Close()
		return nil, fmt.Errorf("loading index: %w", err)
	}
	return svc, nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, resp *domain.RetrievalResponse) {
	s := newStyles()

	if len(resp.Matches) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println(s.Title.Render(fmt.Sprintf("Results for %q (%d)", resp.Query, resp.TotalMatches)))
	cmd.Println()
	for i, m := range resp.Matches {
		name := m.Metadata[domain.MetadataFileName]
		if name == "" {
			name = m.Metadata[domain.MetadataFilePath]
		}
		cmd.Printf("  [%d] %s %s\n", i+1, name, s.Score.Render(fmt.Sprintf("(%.3f)", m.Score)))
		if title := m.Metadata["title"]; title != "" && title != name {
			cmd.Printf("      %s\n", s.Muted.Render("Title: "+title))
		}
		if text := snippet(m.Text); text != "" {
			cmd.Printf("      %s\n", text)
		}
		cmd.Println()
	}

	logger.Debug("Sources: %v", resp.Sources)
	cmd.Println(s.Muted.Render("Sources: " + strings.Join(resp.Sources, ", ")))
}

// snippet collapses whitespace and truncates text on a rune boundary.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
