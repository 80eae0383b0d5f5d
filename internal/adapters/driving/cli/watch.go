package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// watchVault rebuilds the collection after vault changes settle.
// It blocks until ctx is cancelled.
func watchVault(
	ctx context.Context,
	cmd *cobra.Command,
	rt *runtime,
	svc driving.IngestService,
	opts domain.IngestOptions,
) error {
	connector := filesystem.New(opts.Root, rt.connectorOptions()...)
	defer connector.Close() //nolint:errcheck

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", opts.Root, err)
	}

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", opts.Root)

	return debounce(ctx, changes, ingestDebounce, func(ctx context.Context, n int) {
		logger.Info("%d change(s) detected, rebuilding collection %s", n, opts.Collection)
		report, err := svc.Ingest(ctx, opts)
		if err != nil {
			logger.Error("Rebuild failed, previous index kept: %v", err)
			return
		}
		printIngestSummary(cmd, rt, report)
	})
}

// debounce calls fn once changes have been quiet for delay, passing the
// number of changes seen since the last call. It returns nil when ctx is
// cancelled or changes is closed.
func debounce(
	ctx context.Context,
	changes <-chan domain.RawDocumentChange,
	delay time.Duration,
	fn func(ctx context.Context, n int),
) error {
	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Vault change: %s %s", change.Type, change.URI)
			pending++
			timer.Reset(delay)
		case <-timer.C:
			if pending == 0 {
				continue
			}
			n := pending
			pending = 0
			fn(ctx, n)
		}
	}
}
