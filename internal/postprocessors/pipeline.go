// Package postprocessors turns normalised documents into chunks.
// Ingestion builds a Pipeline per run from a domain.PipelineConfig, so the
// chunk size and overlap follow the run's options.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// ErrForeignChunk is returned when a processor emits a chunk that belongs
// to another document.
var ErrForeignChunk = errors.New("chunk belongs to another document")

// Pipeline runs processors in order. The first stage receives nil chunks.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline running stages in the order given.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process runs doc through every stage and checks that each resulting
// chunk points back at doc.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		logger.Debug("%s: %s produced %d chunk(s)", doc.URI, stage.Name(), len(out))
		chunks = out
	}

	for i := range chunks {
		if chunks[i].DocumentID != doc.ID {
			return nil, fmt.Errorf("%w: chunk %s has document %q, want %q",
				ErrForeignChunk, chunks[i].ID, chunks[i].DocumentID, doc.ID)
		}
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
