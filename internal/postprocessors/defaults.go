package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/postprocessors/chunker"
)

// ProcessorChunker is the registered name of the Markdown chunker.
const ProcessorChunker = "chunker"

// Chunker settings keys.
const (
	SettingChunkSize = "chunk_size"
	SettingOverlap   = "overlap"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) error {
	return r.Register(ProcessorChunker, buildChunker)
}

// buildChunker creates the chunker. Missing sizes fall back to the chunker
// defaults; an explicit overlap that does not fit the chunk size is rejected
// rather than silently shrunk.
func buildChunker(settings Settings) (driven.PostProcessor, error) {
	size, hasSize := settings.Int(SettingChunkSize)
	overlap, hasOverlap := settings.Int(SettingOverlap)

	if !hasSize {
		size = chunker.DefaultChunkSize
	}
	if size < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", SettingChunkSize, size)
	}
	if !hasOverlap {
		overlap = min(chunker.DefaultChunkOverlap, size/4)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%s must be in [0, %d), got %d", SettingOverlap, size, overlap)
	}

	return chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap)), nil
}
