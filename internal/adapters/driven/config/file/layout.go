package file

import (
	"os"
	"path/filepath"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Directory names under the storage directory.
const (
	VectorStoreDirName = "chroma"
	IndexDirName       = "index"
)

// Ensure Layout implements the interface.
var _ driven.StorageLayout = (*Layout)(nil)

// Layout resolves the persisted layout under a storage directory.
type Layout struct {
	root            string
	externalVectors bool
}

// NewLayout creates a layout rooted at storageDir.
func NewLayout(storageDir string) *Layout {
	return &Layout{root: storageDir}
}

// WithExternalVectorStore marks the vector store as living outside the
// storage directory (for example in PostgreSQL). VectorStoreExists then
// always reports true.
func (l *Layout) WithExternalVectorStore() *Layout {
	l.externalVectors = true
	return l
}

// Root returns the storage directory.
func (l *Layout) Root() string {
	return l.root
}

// IndexDir returns <storage>/index.
func (l *Layout) IndexDir() string {
	return filepath.Join(l.root, IndexDirName)
}

// VectorStoreDir returns <storage>/chroma.
func (l *Layout) VectorStoreDir() string {
	return filepath.Join(l.root, VectorStoreDirName)
}

// IndexExists reports whether the index directory exists.
func (l *Layout) IndexExists() bool {
	return isDir(l.IndexDir())
}

// VectorStoreExists reports whether the vector store directory exists.
func (l *Layout) VectorStoreExists() bool {
	if l.externalVectors {
		return true
	}
	return isDir(l.VectorStoreDir())
}

// Ensure creates both directories.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.IndexDir(), l.VectorStoreDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
