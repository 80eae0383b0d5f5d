package mcp

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	resp   *domain.RetrievalResponse
	health domain.HealthStatus
	err    error

	gotQuery string
	gotTopK  int
}

func (m *mockRetrievalService) Load(_ context.Context) error { return nil }

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int) (*domain.RetrievalResponse, error) {
	m.gotQuery = query
	m.gotTopK = topK
	return m.resp, m.err
}

func (m *mockRetrievalService) Health(_ context.Context) domain.HealthStatus {
	return m.health
}

func (m *mockRetrievalService) Close() error { return nil }

// mockManifestReader is a mock implementation of ManifestReader.
type mockManifestReader struct {
	manifest *domain.IndexManifest
}

func (m *mockManifestReader) Manifest() *domain.IndexManifest {
	return m.manifest
}
