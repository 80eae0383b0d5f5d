package postprocessors

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

var (
	// ErrUnknownProcessor is returned when a pipeline names an unregistered processor.
	ErrUnknownProcessor = errors.New("unknown processor")

	// ErrDuplicateProcessor is returned when a name is registered twice.
	ErrDuplicateProcessor = errors.New("processor already registered")
)

// Settings is the per-processor section of a pipeline config.
type Settings map[string]any

// Int returns the integer stored under key. Numbers decoded from TOML or
// JSON arrive as int64 or float64 and are accepted too.
func (s Settings) Int(key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// BuilderFunc creates a processor from its settings. Settings may be nil.
type BuilderFunc func(settings Settings) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder under name, which should match the processor's Name.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProcessor, name)
	}
	r.builders[name] = builder
	return nil
}

// Build creates the processor registered under name.
func (r *Registry) Build(name string, settings Settings) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
	}
	processor, err := builder(settings)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", name, err)
	}
	return processor, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
