// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/vault-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/vault-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// sampleText is embedded once when the model's dimensions are not known.
const sampleText = "dimension check"

// CreateAndValidateEmbeddingService creates an embedding service and validates
// connectivity. When the model's dimensionality is unknown it is learned by
// embedding a short sample text. Any failure wraps domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	if svc.Dimensions() == 0 {
		logger.Debug("Probing dimensions for embedding model %s", svc.ModelName())
		if _, err := svc.Embed(pingCtx, sampleText); err != nil {
			svc.Close()
			return nil, fmt.Errorf("%w: embed with model %s: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
		}
	}

	logger.Debug("Embedding service ready: %s (%s, %d dimensions)",
		svc.ModelName(), settings.Provider, svc.Dimensions())
	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("embedding settings are required")
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider %s is not configured (model and API key)", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.ResolvedDimensions(),
		RateLimit:  settings.RateLimit,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
		RateLimit:  settings.RateLimit,
	})
}
