package driven

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// VectorIndex stores vectors in named collections and performs exact
// nearest-neighbour search by cosine similarity.
type VectorIndex interface {
	// GetOrCreate returns the named collection, creating it if needed.
	// An existing collection built with a different model or dimensionality
	// returns domain.ErrEmbeddingMismatch.
	GetOrCreate(ctx context.Context, spec domain.CollectionSpec) (*domain.Collection, error)

	// Get returns the named collection or domain.ErrCollectionNotFound.
	Get(ctx context.Context, name string) (*domain.Collection, error)

	// Exists reports whether the named collection exists.
	Exists(ctx context.Context, name string) (bool, error)

	// ListCollections returns all collection names, sorted.
	ListCollections(ctx context.Context) ([]string, error)

	// Upsert inserts or replaces records by ID.
	// Vectors of the wrong size return domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error

	// Query returns at most k hits by descending similarity.
	// Ties keep insertion order. An unknown collection returns
	// domain.ErrCollectionNotFound, never an empty result.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]VectorHit, error)

	// Delete drops a collection and all its records.
	// Deleting a missing collection is not an error.
	Delete(ctx context.Context, collection string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched record.
	ID string

	// Text is the stored chunk text.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata map[string]string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
