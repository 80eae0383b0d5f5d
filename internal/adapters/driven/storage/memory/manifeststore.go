package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu       sync.RWMutex
	manifest *domain.IndexManifest
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{}
}

// Save stores a copy of the manifest.
func (s *ManifestStore) Save(_ context.Context, manifest *domain.IndexManifest) error {
	if manifest == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *manifest
	s.manifest = &m
	return nil
}

// Load returns a copy of the stored manifest.
func (s *ManifestStore) Load(_ context.Context) (*domain.IndexManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, domain.ErrIndexNotFound
	}
	m := *s.manifest
	return &m, nil
}

// Path returns a placeholder location.
func (s *ManifestStore) Path() string {
	return "memory://manifest"
}
