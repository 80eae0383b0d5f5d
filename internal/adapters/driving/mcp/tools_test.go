package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieval response", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			resp: &domain.RetrievalResponse{
				Matches: []domain.RetrievalMatch{
					{
						Text:     "Alpha covers gardening.",
						Score:    0.87,
						Metadata: map[string]string{"file_name": "alpha.md", "title": "Alpha"},
					},
				},
				Query:        "gardening",
				TotalMatches: 1,
				Sources:      []string{"alpha.md"},
			},
		}

		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		input := RetrieveInput{Query: "gardening", TopK: 3}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "gardening", mockRetrieval.gotQuery)
		assert.Equal(t, 3, mockRetrieval.gotTopK)
		assert.Equal(t, 1, output.TotalMatches)
		assert.Equal(t, "gardening", output.Query)
		assert.Equal(t, []string{"alpha.md"}, output.Sources)
		require.Len(t, output.Matches, 1)
		assert.Equal(t, "Alpha covers gardening.", output.Matches[0].Text)
		assert.Equal(t, 0.87, output.Matches[0].Score)
		assert.Equal(t, "Alpha", output.Matches[0].Metadata["title"])
	})

	t.Run("omitted top_k defers to service default", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{resp: &domain.RetrievalResponse{Sources: []string{}}}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x"})

		require.NoError(t, err)
		assert.Equal(t, 0, mockRetrieval.gotTopK)
		assert.Empty(t, output.Matches)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			err: domain.NewRetrievalError(domain.KindValidation, "Query cannot be empty", domain.ErrEmptyQuery),
		}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: " "})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmptyQuery))
		assert.Contains(t, err.Error(), "Query cannot be empty")
	})
}

func TestServer_handleHealth(t *testing.T) {
	mockRetrieval := &mockRetrievalService{
		health: domain.HealthStatus{
			Status:         domain.StatusOK,
			Collections:    []string{"vault_md"},
			IndexExists:    true,
			ChromaExists:   true,
			EmbeddingModel: "nomic-embed-text",
		},
	}
	server, err := NewServer(&Ports{Retrieval: mockRetrieval})
	require.NoError(t, err)

	_, output, err := server.handleHealth(context.Background(), nil, HealthInput{})

	require.NoError(t, err)
	assert.Equal(t, HealthOutput{
		Status:         "ok",
		Collections:    []string{"vault_md"},
		IndexExists:    true,
		ChromaExists:   true,
		EmbeddingModel: "nomic-embed-text",
	}, output)
}
