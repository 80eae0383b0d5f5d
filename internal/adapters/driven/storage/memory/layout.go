package memory

import "github.com/custodia-labs/vault-rag/internal/core/ports/driven"

// Ensure Layout implements the interface.
var _ driven.StorageLayout = Layout{}

// Layout is a storage layout with nothing on disk. Present controls what the
// existence checks report.
type Layout struct {
	Present bool
}

// IndexDir returns a placeholder location.
func (l Layout) IndexDir() string { return "memory://index" }

// VectorStoreDir returns a placeholder location.
func (l Layout) VectorStoreDir() string { return "memory://vectors" }

// IndexExists reports Present.
func (l Layout) IndexExists() bool { return l.Present }

// VectorStoreExists reports Present.
func (l Layout) VectorStoreExists() bool { return l.Present }
