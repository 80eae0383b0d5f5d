package filesystem

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates filesystem connectors sharing the same options.
type Factory struct {
	opts []Option
}

// NewFactory creates a connector factory.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// Create returns a connector rooted at root.
func (f *Factory) Create(_ context.Context, root string) (driven.Connector, error) {
	return New(root, f.opts...), nil
}
