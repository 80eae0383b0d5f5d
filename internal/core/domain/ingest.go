package domain

import (
	"fmt"
	"time"
)

// IngestOptions configures a single ingestion run.
type IngestOptions struct {
	// Root is the source directory.
	Root string

	// ChunkSize is the maximum chunk size in bytes.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks in bytes.
	ChunkOverlap int

	// Collection is the vector collection to rebuild.
	Collection string
}

// Validate checks the options before any file is touched.
func (o IngestOptions) Validate() error {
	if o.Root == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalidInput)
	}
	if o.Collection == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, o.ChunkSize)
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d",
			ErrInvalidInput, o.ChunkSize, o.ChunkOverlap)
	}
	return nil
}

// IngestReport summarises a completed ingestion run.
type IngestReport struct {
	Collection string
	Documents  int
	Chunks     int
	Skipped    int
	Warnings   int
	Duration   time.Duration
}
