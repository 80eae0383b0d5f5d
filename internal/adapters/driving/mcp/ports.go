// Package mcp exposes vault retrieval to AI assistants over the Model
// Context Protocol, as tools plus a manifest resource.
package mcp

import (
	"errors"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
)

// ErrMissingRetrievalService is returned by NewServer when Ports has no
// retrieval service.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// ManifestReader exposes the manifest of the loaded index.
type ManifestReader interface {
	// Manifest returns the loaded manifest, or nil when nothing is loaded.
	Manifest() *domain.IndexManifest
}

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Retrieval answers queries and reports health.
	Retrieval driving.RetrievalService

	// Manifest backs the manifest resource. Optional.
	Manifest ManifestReader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
