package driven

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// PostProcessor is one stage of the chunking pipeline. The first stage
// receives nil chunks and splits the document; later stages may rewrite,
// drop or annotate the chunks they are given.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs a document through every stage in order and
// returns the final chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// PipelineBuilder assembles a pipeline from chunking configuration.
type PipelineBuilder interface {
	Build(cfg domain.PipelineConfig) (PostProcessorPipeline, error)
}
