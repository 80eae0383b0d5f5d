package driving

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// RetrievalService answers similarity queries over a persisted index.
type RetrievalService interface {
	// Load opens the persisted index and embedding handles.
	// It must succeed before Retrieve can serve requests.
	Load(ctx context.Context) error

	// Retrieve returns up to topK chunks for the query.
	// A topK of zero means the configured default.
	// Errors are *domain.RetrievalError.
	Retrieve(ctx context.Context, query string, topK int) (*domain.RetrievalResponse, error)

	// Health reports readiness and the persisted layout.
	Health(ctx context.Context) domain.HealthStatus

	// Close releases the loaded handles.
	Close() error
}
