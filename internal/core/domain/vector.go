package domain

import "time"

// VectorRecord is a chunk as persisted in a vector collection.
type VectorRecord struct {
	// ID is unique within the collection.
	ID string

	// Embedding must match the collection dimensionality.
	Embedding []float32

	// Text is the original chunk text.
	Text string

	// Metadata is the chunk's document metadata.
	Metadata map[string]string
}

// CollectionSpec describes a collection to create or open.
type CollectionSpec struct {
	// Name identifies the collection.
	Name string

	// EmbeddingModel is the model that produced the stored vectors.
	EmbeddingModel string

	// Dimensions is the fixed vector size for the collection.
	Dimensions int
}

// Collection is a named, independently queryable partition of the index.
type Collection struct {
	Name           string
	EmbeddingModel string
	Dimensions     int
	Count          int
	CreatedAt      time.Time
}

// Matches reports whether the collection was built with the given model
// and dimensionality.
func (c Collection) Matches(model string, dimensions int) bool {
	return c.EmbeddingModel == model && c.Dimensions == dimensions
}

// IndexManifest is the structural metadata written next to the vector store
// at the end of every ingestion run.
type IndexManifest struct {
	Collection     string
	EmbeddingModel string
	Dimensions     int
	ChunkSize      int
	ChunkOverlap   int
	Documents      int
	Chunks         int
	Skipped        int
	CreatedAt      time.Time
}
