package driving

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// IngestService rebuilds a vector collection from a source directory.
type IngestService interface {
	// Ingest loads, chunks, embeds and indexes every document under opts.Root.
	// The collection is rebuilt from scratch on every run.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)
}
