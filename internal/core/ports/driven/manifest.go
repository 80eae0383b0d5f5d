package driven

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// ManifestStore persists the index manifest written by ingestion.
type ManifestStore interface {
	// Save writes the manifest, replacing any previous one.
	Save(ctx context.Context, manifest *domain.IndexManifest) error

	// Load reads the manifest. Returns domain.ErrIndexNotFound if none exists.
	Load(ctx context.Context) (*domain.IndexManifest, error)

	// Path returns the location of the manifest.
	Path() string
}

// StorageLayout reports on the persisted layout under the storage directory.
type StorageLayout interface {
	// IndexDir is the directory holding the index manifest.
	IndexDir() string

	// VectorStoreDir is the directory holding the vector store.
	VectorStoreDir() string

	// IndexExists reports whether the index directory exists.
	IndexExists() bool

	// VectorStoreExists reports whether the vector store exists.
	VectorStoreExists() bool
}
