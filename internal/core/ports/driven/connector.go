package driven

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// Connector fetches raw files from a source.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Root returns the source root the connector reads from.
	Root() string

	// Validate checks the source exists and is readable.
	// Returns domain.ErrSourceNotFound when the root is missing or not a directory.
	Validate(ctx context.Context) error

	// FullSync fetches all matching files from the source.
	// Per-file failures are sent on the error channel as *domain.ItemError
	// and never stop the walk. Both channels are closed when the walk ends.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes to matching files until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorFactory creates connectors for a source root.
type ConnectorFactory interface {
	// Create returns a Connector reading from root.
	Create(ctx context.Context, root string) (Connector, error)
}
