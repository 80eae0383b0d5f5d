package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// ManifestFile is the manifest file name inside the index directory.
const ManifestFile = "manifest.toml"

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// manifestDocument is the TOML shape of the manifest.
type manifestDocument struct {
	Collection string        `toml:"collection"`
	CreatedAt  time.Time     `toml:"created_at"`
	Embedding  embeddingInfo `toml:"embedding"`
	Chunking   chunkingInfo  `toml:"chunking"`
	Stats      statsInfo     `toml:"stats"`
}

type embeddingInfo struct {
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

type chunkingInfo struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

type statsInfo struct {
	Documents int `toml:"documents"`
	Chunks    int `toml:"chunks"`
	Skipped   int `toml:"skipped"`
}

// ManifestStore is a file-based implementation of driven.ManifestStore using TOML.
type ManifestStore struct {
	mu       sync.Mutex
	filePath string
}

// NewManifestStore creates a manifest store in indexDir.
// The directory is created on first Save.
func NewManifestStore(indexDir string) *ManifestStore {
	return &ManifestStore{
		filePath: filepath.Join(indexDir, ManifestFile),
	}
}

// Save writes the manifest, replacing any previous one.
// The file is written to a temporary name first and renamed into place.
func (s *ManifestStore) Save(_ context.Context, m *domain.IndexManifest) error {
	if m == nil {
		return domain.ErrInvalidInput
	}

	doc := manifestDocument{
		Collection: m.Collection,
		CreatedAt:  m.CreatedAt.UTC(),
		Embedding:  embeddingInfo{Model: m.EmbeddingModel, Dimensions: m.Dimensions},
		Chunking:   chunkingInfo{Size: m.ChunkSize, Overlap: m.ChunkOverlap},
		Stats:      statsInfo{Documents: m.Documents, Chunks: m.Chunks, Skipped: m.Skipped},
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Load reads the manifest.
func (s *ManifestStore) Load(_ context.Context) (*domain.IndexManifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.filePath)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var doc manifestDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", s.filePath, err)
	}

	return &domain.IndexManifest{
		Collection:     doc.Collection,
		EmbeddingModel: doc.Embedding.Model,
		Dimensions:     doc.Embedding.Dimensions,
		ChunkSize:      doc.Chunking.Size,
		ChunkOverlap:   doc.Chunking.Overlap,
		Documents:      doc.Stats.Documents,
		Chunks:         doc.Stats.Chunks,
		Skipped:        doc.Stats.Skipped,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

// Path returns the manifest file path.
func (s *ManifestStore) Path() string {
	return s.filePath
}
