package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// EmbedderOpener opens the configured embedding service.
type EmbedderOpener func(ctx context.Context) (driven.EmbeddingService, error)

// IndexOpener opens the persisted vector index.
type IndexOpener func(ctx context.Context) (driven.VectorIndex, error)

// RetrievalConfig holds the query-time settings.
type RetrievalConfig struct {
	// Collection is the collection to query.
	Collection string

	// EmbeddingModel is the configured model, reported by Health.
	EmbeddingModel string

	// DefaultTopK is used when a request does not set top_k.
	DefaultTopK int

	// MaxTopK is the largest accepted top_k.
	MaxTopK int

	// FetchK is the minimum number of candidates fetched from the index.
	FetchK int
}

// retrievalState is published once by Load and never mutated.
type retrievalState struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	manifest *domain.IndexManifest
}

// RetrievalService answers similarity queries over a persisted index.
type RetrievalService struct {
	cfg          RetrievalConfig
	layout       driven.StorageLayout
	manifests    driven.ManifestStore
	openEmbedder EmbedderOpener
	openIndex    IndexOpener
	metrics      driven.MetricsRecorder

	loadMu sync.Mutex
	state  atomic.Pointer[retrievalState]
}

// NewRetrievalService creates a retrieval service. Nothing is opened until Load.
func NewRetrievalService(
	cfg RetrievalConfig,
	layout driven.StorageLayout,
	manifests driven.ManifestStore,
	openEmbedder EmbedderOpener,
	openIndex IndexOpener,
	metrics driven.MetricsRecorder,
) *RetrievalService {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = max(20, cfg.DefaultTopK)
	}
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &RetrievalService{
		cfg:          cfg,
		layout:       layout,
		manifests:    manifests,
		openEmbedder: openEmbedder,
		openIndex:    openIndex,
		metrics:      metrics,
	}
}

// Load opens the persisted index and embedding handles and publishes them.
//
//nolint:gocyclo // Sequential validation steps
func (s *RetrievalService) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.state.Load() != nil {
		return domain.ErrAlreadyLoaded
	}

	logger.Info("Loading vector index...")

	// 1. Persisted layout
	if !s.layout.IndexExists() {
		return fmt.Errorf("%w: index storage not found at %s", domain.ErrIndexNotFound, s.layout.IndexDir())
	}
	if !s.layout.VectorStoreExists() {
		return fmt.Errorf("%w: vector store not found at %s", domain.ErrIndexNotFound, s.layout.VectorStoreDir())
	}

	// 2. Manifest
	manifest, err := s.manifests.Load(ctx)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if manifest.Collection != s.cfg.Collection {
		logger.Warn("Manifest describes collection %q, serving %q", manifest.Collection, s.cfg.Collection)
	}

	// 3. Embedding service must match what built the index
	embedder, err := s.openEmbedder(ctx)
	if err != nil {
		return err
	}
	if manifest.EmbeddingModel != embedder.ModelName() || manifest.Dimensions != embedder.Dimensions() {
		embedder.Close()
		return fmt.Errorf("%w: index built with %s (%d dimensions), configured %s (%d dimensions)",
			domain.ErrEmbeddingMismatch, manifest.EmbeddingModel, manifest.Dimensions,
			embedder.ModelName(), embedder.Dimensions())
	}

	// 4. Collection
	index, err := s.openIndex(ctx)
	if err != nil {
		embedder.Close()
		return fmt.Errorf("open vector index: %w", err)
	}
	col, err := index.Get(ctx, s.cfg.Collection)
	if err != nil {
		embedder.Close()
		index.Close()
		return fmt.Errorf("failed to load collection %s: %w", s.cfg.Collection, err)
	}
	if !col.Matches(embedder.ModelName(), embedder.Dimensions()) {
		embedder.Close()
		index.Close()
		return fmt.Errorf("%w: collection %s built with %s (%d dimensions)",
			domain.ErrEmbeddingMismatch, col.Name, col.EmbeddingModel, col.Dimensions)
	}

	// 5. Publish
	s.state.Store(&retrievalState{
		embedder: embedder,
		index:    index,
		manifest: manifest,
	})
	s.metrics.SetReady(true)

	logger.Info("Index loaded: collection %s, %d chunks, model %s", col.Name, col.Count, col.EmbeddingModel)
	return nil
}

// Retrieve returns up to topK chunks for the query.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) (resp *domain.RetrievalResponse, err error) {
	started := time.Now()
	defer func() {
		outcome := driven.OutcomeOK
		if err != nil {
			outcome = string(domain.KindOf(err))
		}
		s.metrics.ObserveRetrieval(outcome, time.Since(started))
	}()

	if strings.TrimSpace(query) == "" {
		return nil, domain.NewRetrievalError(domain.KindValidation, "Query cannot be empty", domain.ErrEmptyQuery)
	}

	state := s.state.Load()
	if state == nil {
		return nil, domain.NewRetrievalError(domain.KindUnavailable,
			"Index not loaded. Please check server startup logs.", domain.ErrNotLoaded)
	}
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK < 1 || topK > s.cfg.MaxTopK {
		return nil, domain.NewRetrievalError(domain.KindValidation,
			fmt.Sprintf("top_k must be between 1 and %d, got %d", s.cfg.MaxTopK, topK), domain.ErrInvalidTopK)
	}

	logger.Debug("Processing query: %.100s", query)

	vector, err := state.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewRetrievalError(domain.KindInternal, "Retrieval failed: embed query", err)
	}

	hits, err := state.index.Query(ctx, s.cfg.Collection, vector, max(topK, s.cfg.FetchK))
	if err != nil {
		return nil, domain.NewRetrievalError(domain.KindInternal, "Retrieval failed: query index", err)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	resp = shapeResponse(query, hits)
	logger.Info("Retrieved %d matches for query from %d files", resp.TotalMatches, len(resp.Sources))
	return resp, nil
}

// shapeResponse converts index hits into a response, keeping index order.
func shapeResponse(query string, hits []driven.VectorHit) *domain.RetrievalResponse {
	matches := make([]domain.RetrievalMatch, 0, len(hits))
	seen := make(map[string]struct{})
	sources := []string{}

	for _, hit := range hits {
		metadata := hit.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		matches = append(matches, domain.RetrievalMatch{
			Text:     hit.Text,
			Score:    normaliseScore(hit.Similarity),
			Metadata: metadata,
		})

		if name, ok := metadata[domain.MetadataFileName]; ok && name != "" {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				sources = append(sources, name)
			}
		}
	}
	sort.Strings(sources)

	return &domain.RetrievalResponse{
		Matches:      matches,
		Query:        query,
		TotalMatches: len(matches),
		Sources:      sources,
	}
}

// normaliseScore maps absent, non-finite and negative scores to zero.
func normaliseScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

// Health reports readiness and the persisted layout. It never fails.
func (s *RetrievalService) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Status:         domain.StatusNotReady,
		Collections:    []string{},
		IndexExists:    s.layout.IndexExists(),
		ChromaExists:   s.layout.VectorStoreExists(),
		EmbeddingModel: s.cfg.EmbeddingModel,
	}

	state := s.state.Load()
	if state != nil {
		status.Status = domain.StatusOK
	}

	if !status.ChromaExists {
		return status
	}

	collections, err := s.listCollections(ctx, state)
	if err != nil {
		logger.Warn("Failed to list collections: %v", err)
		return status
	}
	status.Collections = collections
	return status
}

// listCollections uses the loaded index, or opens one briefly when not loaded.
func (s *RetrievalService) listCollections(ctx context.Context, state *retrievalState) ([]string, error) {
	if state != nil {
		return state.index.ListCollections(ctx)
	}

	index, err := s.openIndex(ctx)
	if err != nil {
		return nil, err
	}
	defer index.Close()
	return index.ListCollections(ctx)
}

// Manifest returns the manifest read by Load, or nil before Load.
func (s *RetrievalService) Manifest() *domain.IndexManifest {
	if state := s.state.Load(); state != nil {
		m := *state.manifest
		return &m
	}
	return nil
}

// Close releases the loaded handles and returns the service to not ready.
func (s *RetrievalService) Close() error {
	state := s.state.Swap(nil)
	if state == nil {
		return nil
	}
	s.metrics.SetReady(false)
	return errors.Join(state.embedder.Close(), state.index.Close())
}
