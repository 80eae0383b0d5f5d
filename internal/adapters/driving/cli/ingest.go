package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/config"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

var (
	ingestWatch    bool
	ingestDebounce time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from a Markdown vault",
	Long: `Loads every Markdown file under the vault, splits it into overlapping
chunks, embeds the chunks and rebuilds the vector collection from scratch.

Unreadable files are skipped and counted. The previous collection is only
replaced once every chunk has been embedded.

Use --watch to keep running and rebuild whenever vault files change.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var ingestFlags = []flagKey{
	{flag: "vault", key: config.KeyVaultPath},
	{flag: "chunk-size", key: config.KeyChunkSize},
	{flag: "chunk-overlap", key: config.KeyChunkOverlap},
	{flag: "collection", key: config.KeyCollection},
}

func init() {
	ingestCmd.Flags().String("vault", "", "vault directory (overrides VAULT_PATH)")
	ingestCmd.Flags().Int("chunk-size", 0, "chunk size in bytes (overrides CHUNK_SIZE)")
	ingestCmd.Flags().Int("chunk-overlap", 0, "chunk overlap in bytes (overrides CHUNK_OVERLAP)")
	ingestCmd.Flags().String("collection", "", "collection name (overrides COLLECTION_NAME)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "rebuild when vault files change")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", 2*time.Second,
		"quiet period before a watched rebuild")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd, ingestFlags...)
	if err != nil {
		return err
	}
	rt := newRuntime(settings)

	svc, release, err := rt.ingest(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("Failed to close ingest resources: %v", err)
		}
	}()

	opts := domain.IngestOptions{
		Root:         settings.VaultPath,
		ChunkSize:    settings.ChunkSize,
		ChunkOverlap: settings.ChunkOverlap,
		Collection:   settings.Collection,
	}

	logger.Info("Ingesting %s into collection %s", opts.Root, opts.Collection)
	report, err := svc.Ingest(ctx, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestSummary(cmd, rt, report)

	if !ingestWatch {
		return nil
	}
	return watchVault(ctx, cmd, rt, svc, opts)
}

func printIngestSummary(cmd *cobra.Command, rt *runtime, report *domain.IngestReport) {
	s := newStyles()

	documents := fmt.Sprintf("%d", report.Documents)
	if report.Skipped > 0 {
		documents += s.Warning.Render(fmt.Sprintf(" (%d skipped)", report.Skipped))
	}

	cmd.Println(s.Success.Render("Ingestion complete"))
	cmd.Println(s.row("Documents", documents))
	cmd.Println(s.row("Chunks", fmt.Sprintf("%d", report.Chunks)))
	if report.Warnings > 0 {
		cmd.Println(s.row("Warnings", s.Warning.Render(fmt.Sprintf("%d", report.Warnings))))
	}
	cmd.Println(s.row("Collection", report.Collection))
	cmd.Println(s.row("Vector store", rt.vectorStoreLocation()))
	cmd.Println(s.row("Index", rt.manifests.Path()))
	cmd.Println(s.row("Duration", s.Muted.Render(report.Duration.Round(time.Millisecond).String())))
}
