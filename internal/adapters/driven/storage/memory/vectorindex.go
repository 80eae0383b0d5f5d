package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// collection holds records in insertion order with an ID lookup.
type collection struct {
	info    domain.Collection
	records []domain.VectorRecord
	byID    map[string]int
}

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]*collection),
	}
}

// GetOrCreate returns the named collection, creating it if needed.
func (v *VectorIndex) GetOrCreate(_ context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	if spec.Name == "" || spec.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: collection needs a name and positive dimensions", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.collections[spec.Name]; ok {
		if !c.info.Matches(spec.EmbeddingModel, spec.Dimensions) {
			return nil, fmt.Errorf("%w: collection %q was built with %s (%d dimensions)",
				domain.ErrEmbeddingMismatch, spec.Name, c.info.EmbeddingModel, c.info.Dimensions)
		}
		return c.snapshot(), nil
	}

	c := &collection{
		info: domain.Collection{
			Name:           spec.Name,
			EmbeddingModel: spec.EmbeddingModel,
			Dimensions:     spec.Dimensions,
			CreatedAt:      time.Now().UTC(),
		},
		byID: make(map[string]int),
	}
	v.collections[spec.Name] = c
	return c.snapshot(), nil
}

// Get returns the named collection.
func (v *VectorIndex) Get(_ context.Context, name string) (*domain.Collection, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.collections[name]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	return c.snapshot(), nil
}

// Exists reports whether the named collection exists.
func (v *VectorIndex) Exists(_ context.Context, name string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.collections[name]
	return ok, nil
}

// ListCollections returns all collection names, sorted.
func (v *VectorIndex) ListCollections(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.collections)), nil
}

// Upsert inserts or replaces records by ID.
func (v *VectorIndex) Upsert(_ context.Context, name string, records []domain.VectorRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.collections[name]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	for _, r := range records {
		if len(r.Embedding) != c.info.Dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection %q expects %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), name, c.info.Dimensions)
		}
	}

	for _, r := range records {
		r.Embedding = slices.Clone(r.Embedding)
		if i, ok := c.byID[r.ID]; ok {
			c.records[i] = r
			continue
		}
		c.byID[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
	return nil
}

// Query returns at most k records by descending cosine similarity.
func (v *VectorIndex) Query(_ context.Context, name string, vector []float32, k int) ([]driven.VectorHit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.collections[name]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	if len(vector) != c.info.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %q expects %d",
			domain.ErrDimensionMismatch, len(vector), name, c.info.Dimensions)
	}

	hits := make([]driven.VectorHit, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, driven.VectorHit{
			ID:         r.ID,
			Text:       r.Text,
			Metadata:   r.Metadata,
			Similarity: similarity.Cosine(vector, r.Embedding),
		})
	}
	return similarity.TopK(hits, k), nil
}

// Delete drops a collection and all its records.
func (v *VectorIndex) Delete(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.collections, name)
	return nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// snapshot returns a copy of the collection info with the current count.
func (c *collection) snapshot() *domain.Collection {
	info := c.info
	info.Count = len(c.records)
	return &info
}
