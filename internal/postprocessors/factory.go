package postprocessors

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.PipelineBuilder = (*Factory)(nil)

// ErrEmptyPipeline is returned when a pipeline config names no processors.
var ErrEmptyPipeline = errors.New("pipeline has no processors")

// Factory builds pipelines from configuration using a Registry.
type Factory struct {
	registry *Registry
}

// NewFactory creates a pipeline factory backed by the given registry.
func NewFactory(registry *Registry) *Factory {
	return &Factory{registry: registry}
}

// NewDefaultFactory creates a factory with all built-in processors registered.
func NewDefaultFactory() *Factory {
	r := NewRegistry()
	// A fresh registry has no names to collide with.
	_ = RegisterDefaults(r)
	return NewFactory(r)
}

// Build creates a pipeline running the configured processors in order.
func (f *Factory) Build(cfg domain.PipelineConfig) (driven.PostProcessorPipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, ErrEmptyPipeline
	}

	pipeline := NewPipeline()
	for _, name := range cfg.Processors {
		processor, err := f.registry.Build(name, Settings(cfg.GetProcessorConfig(name)))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}
