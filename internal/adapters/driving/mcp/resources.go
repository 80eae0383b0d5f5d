package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for vault-rag resources.
	uriScheme = "vault://"

	// manifestURI addresses the loaded index manifest.
	manifestURI = uriScheme + "index/manifest"
)

// manifestInfo is the JSON shape of the manifest resource.
type manifestInfo struct {
	Collection     string `json:"collection"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	Documents      int    `json:"documents"`
	Chunks         int    `json:"chunks"`
	Skipped        int    `json:"skipped"`
	CreatedAt      string `json:"created_at"`
}

// registerResources registers resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Manifest == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         manifestURI,
		Name:        "index-manifest",
		Description: "How the loaded vault index was built",
		MIMEType:    "application/json",
	}, s.handleManifestResource)
}

// handleManifestResource returns the loaded index manifest, or null before load.
func (s *Server) handleManifestResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	text := "null"

	if m := s.ports.Manifest.Manifest(); m != nil {
		data, err := json.Marshal(manifestInfo{
			Collection:     m.Collection,
			EmbeddingModel: m.EmbeddingModel,
			Dimensions:     m.Dimensions,
			ChunkSize:      m.ChunkSize,
			ChunkOverlap:   m.ChunkOverlap,
			Documents:      m.Documents,
			Chunks:         m.Chunks,
			Skipped:        m.Skipped,
			CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("marshalling manifest: %w", err)
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
