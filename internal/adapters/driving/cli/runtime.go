package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/vault-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/vault-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vault-rag/internal/config"
	"github.com/custodia-labs/vault-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/core/services"
	"github.com/custodia-labs/vault-rag/internal/logger"
	"github.com/custodia-labs/vault-rag/internal/metrics"
	"github.com/custodia-labs/vault-rag/internal/normalisers"
	"github.com/custodia-labs/vault-rag/internal/postprocessors"
)

// runtime wires the adapters selected by settings.
type runtime struct {
	settings  *config.Settings
	layout    *file.Layout
	manifests *file.ManifestStore
	metrics   *metrics.Exporter
}

func newRuntime(settings *config.Settings) *runtime {
	layout := file.NewLayout(settings.StorageDir)
	if settings.VectorBackend == domain.VectorBackendPostgres {
		layout = layout.WithExternalVectorStore()
	}
	return &runtime{
		settings:  settings,
		layout:    layout,
		manifests: file.NewManifestStore(layout.IndexDir()),
		metrics:   metrics.New(metrics.DefaultConfig()),
	}
}

// openEmbedder creates the embedding service and checks it is reachable.
func (r *runtime) openEmbedder(ctx context.Context) (driven.EmbeddingService, error) {
	return ai.CreateAndValidateEmbeddingService(ctx, &r.settings.Embedding)
}

// openIndex opens the configured vector backend.
func (r *runtime) openIndex(ctx context.Context) (driven.VectorIndex, error) {
	backend := r.settings.VectorBackend
	if !backend.IsPersistent() {
		logger.Warn("Vector backend %s does not persist vectors", backend)
	}
	switch backend {
	case domain.VectorBackendPostgres:
		return postgres.NewStore(ctx, r.settings.PostgresDSN)
	case domain.VectorBackendMemory:
		return memory.NewVectorIndex(), nil
	default:
		return sqlite.NewStore(r.layout.VectorStoreDir())
	}
}

// vectorStoreLocation describes where vectors are kept, for summaries.
func (r *runtime) vectorStoreLocation() string {
	switch r.settings.VectorBackend {
	case domain.VectorBackendPostgres:
		return "postgres"
	case domain.VectorBackendMemory:
		return "memory"
	default:
		return r.layout.VectorStoreDir()
	}
}

func (r *runtime) connectorOptions() []filesystem.Option {
	return []filesystem.Option{
		filesystem.WithExtensions(r.settings.Extensions...),
		filesystem.WithExcludeDirs(r.settings.ExcludeDirs...),
	}
}

func (r *runtime) retrievalConfig() services.RetrievalConfig {
	return services.RetrievalConfig{
		Collection:     r.settings.Collection,
		EmbeddingModel: r.settings.Embedding.Model,
		DefaultTopK:    r.settings.DefaultTopK,
		MaxTopK:        r.settings.MaxTopK,
		FetchK:         r.settings.FetchK,
	}
}

// retrieval returns the injected retrieval service or builds one. Nothing
// is opened until Load.
func (r *runtime) retrieval() driving.RetrievalService {
	if retrievalService != nil {
		return retrievalService
	}
	return services.NewRetrievalService(
		r.retrievalConfig(),
		r.layout,
		r.manifests,
		r.openEmbedder,
		r.openIndex,
		r.metrics,
	)
}

// ingest returns the injected ingest service or builds one. The returned
// function releases whatever was opened.
func (r *runtime) ingest(ctx context.Context) (driving.IngestService, func() error, error) {
	if ingestService != nil {
		return ingestService, func() error { return nil }, nil
	}

	if err := r.layout.Ensure(); err != nil {
		return nil, nil, fmt.Errorf("creating storage directories: %w", err)
	}

	embedder, err := r.openEmbedder(ctx)
	if err != nil {
		return nil, nil, err
	}

	index, err := r.openIndex(ctx)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("opening vector index: %w", err)
	}

	svc := services.NewIngestService(
		filesystem.NewFactory(r.connectorOptions()...),
		normalisers.NewDefaultRegistry(),
		postprocessors.NewDefaultFactory(),
		embedder,
		index,
		r.manifests,
		services.WithBatchSize(r.settings.Embedding.BatchSize),
		services.WithWorkers(r.settings.Embedding.Workers),
		services.WithIngestMetrics(r.metrics),
	)

	release := func() error {
		return errors.Join(index.Close(), embedder.Close())
	}
	return svc, release, nil
}
