package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// Tool names.
const (
	ToolRetrieve = "retrieve"
	ToolHealth   = "health"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question or search text"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to return (server default when omitted)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Matches      []MatchOutput `json:"matches"`
	Query        string        `json:"query"`
	TotalMatches int           `json:"total_matches"`
	Sources      []string      `json:"sources"`
}

// MatchOutput represents a single retrieved chunk.
type MatchOutput struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// HealthInput is the (empty) input schema for the health tool.
type HealthInput struct{}

// HealthOutput is the output schema for the health tool.
type HealthOutput struct {
	Status         string   `json:"status"`
	Collections    []string `json:"collections"`
	IndexExists    bool     `json:"index_exists"`
	ChromaExists   bool     `json:"chroma_exists"`
	EmbeddingModel string   `json:"embedding_model"`
}

// registerTools registers the tool handlers that pass the allow and deny lists.
func (s *Server) registerTools() {
	if s.exposed(ToolRetrieve) {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        ToolRetrieve,
			Description: "Retrieve the Markdown vault chunks most relevant to a query",
		}, s.handleRetrieve)
		s.tools = append(s.tools, ToolRetrieve)
	}

	if s.exposed(ToolHealth) {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        ToolHealth,
			Description: "Report whether the vault index is loaded and ready",
		}, s.handleHealth)
		s.tools = append(s.tools, ToolHealth)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	resp, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Matches:      make([]MatchOutput, len(resp.Matches)),
		Query:        resp.Query,
		TotalMatches: resp.TotalMatches,
		Sources:      nonNil(resp.Sources),
	}
	for i, m := range resp.Matches {
		output.Matches[i] = MatchOutput{
			Text:     m.Text,
			Score:    m.Score,
			Metadata: m.Metadata,
		}
	}

	return nil, output, nil
}

// handleHealth handles the health tool invocation.
func (s *Server) handleHealth(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HealthInput,
) (*mcp.CallToolResult, HealthOutput, error) {
	return nil, healthOutput(s.ports.Retrieval.Health(ctx)), nil
}

func healthOutput(h domain.HealthStatus) HealthOutput {
	return HealthOutput{
		Status:         h.Status,
		Collections:    nonNil(h.Collections),
		IndexExists:    h.IndexExists,
		ChromaExists:   h.ChromaExists,
		EmbeddingModel: h.EmbeddingModel,
	}
}

// nonNil keeps structured output arrays from encoding as null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
