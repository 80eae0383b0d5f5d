package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Ingestion defaults.
const (
	DefaultEmbedBatchSize = 32
	DefaultEmbedWorkers   = 4
	progressInterval      = 100
)

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers bounds the number of concurrent embedding requests.
func WithWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIngestMetrics sets the metrics recorder.
func WithIngestMetrics(m driven.MetricsRecorder) IngestOption {
	return func(s *IngestService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// IngestService rebuilds a vector collection from a directory of Markdown files.
type IngestService struct {
	connectors driven.ConnectorFactory
	registry   driven.NormaliserRegistry
	pipelines  driven.PipelineBuilder
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	manifests  driven.ManifestStore
	metrics    driven.MetricsRecorder

	batchSize int
	workers   int
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	connectors driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	pipelines driven.PipelineBuilder,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	manifests driven.ManifestStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		connectors: connectors,
		registry:   registry,
		pipelines:  pipelines,
		embedder:   embedder,
		index:      index,
		manifests:  manifests,
		metrics:    driven.NopMetrics{},
		batchSize:  DefaultEmbedBatchSize,
		workers:    DefaultEmbedWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadResult holds the documents read from a source.
type loadResult struct {
	documents []domain.Document
	skipped   int
	warnings  int
}

// Ingest loads, chunks, embeds and indexes every document under opts.Root.
//
// Embedding happens before the existing collection is dropped, so a failed
// run leaves the previous index in place.
func (s *IngestService) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	started := time.Now()

	// 1. Validate options and source
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	connector, err := s.connectors.Create(ctx, opts.Root)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return nil, err
	}

	pipeline, err := s.pipelines.Build(domain.ChunkingPipelineConfig(opts.ChunkSize, opts.ChunkOverlap))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	logger.Section("Ingestion")
	logger.Info("Loading documents from %s", opts.Root)

	// 2. Load documents
	loaded, err := s.loadDocuments(ctx, connector)
	if err != nil {
		return nil, err
	}

	// 3. Nothing to index is an error
	if len(loaded.documents) == 0 {
		return nil, fmt.Errorf("%w in %s (%d skipped)", domain.ErrNoDocuments, opts.Root, loaded.skipped)
	}
	logger.Info("Loaded %d documents (%d skipped)", len(loaded.documents), loaded.skipped)

	// 4. Chunk
	chunks, err := s.chunkDocuments(ctx, pipeline, loaded.documents)
	if err != nil {
		return nil, err
	}
	logger.Info("Split into %d chunks", len(chunks))

	// 5. Embed
	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	dimensions := s.embedder.Dimensions()
	if len(chunks) > 0 {
		dimensions = len(chunks[0].Embedding)
	}

	// 6. Rebuild the collection
	if err := s.rebuildCollection(ctx, opts.Collection, dimensions, chunks); err != nil {
		return nil, err
	}

	report := &domain.IngestReport{
		Collection: opts.Collection,
		Documents:  len(loaded.documents),
		Chunks:     len(chunks),
		Skipped:    loaded.skipped,
		Warnings:   loaded.warnings,
		Duration:   time.Since(started),
	}

	// 7. Write the manifest
	manifest := &domain.IndexManifest{
		Collection:     opts.Collection,
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dimensions,
		ChunkSize:      opts.ChunkSize,
		ChunkOverlap:   opts.ChunkOverlap,
		Documents:      report.Documents,
		Chunks:         report.Chunks,
		Skipped:        report.Skipped,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.manifests.Save(ctx, manifest); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}

	s.metrics.ObserveIngest(report)

	logger.Info("Ingestion complete: %d documents, %d chunks in %s",
		report.Documents, report.Chunks, report.Duration.Round(time.Millisecond))
	logger.Info("Index manifest: %s", s.manifests.Path())

	return report, nil
}

// loadDocuments drains the connector, normalising each file.
// Per-file failures are counted and skipped; anything else aborts.
//
//nolint:gocognit // Coordinates two channels until both close
func (s *IngestService) loadDocuments(ctx context.Context, connector driven.Connector) (*loadResult, error) {
	result := &loadResult{}
	docsCh, errsCh := connector.FullSync(ctx)

	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if itemErr, isItem := domain.IsItemError(err); isItem {
				result.skipped++
				logger.Debug("Skipped %s (%s)", itemErr.URI, itemErr.Reason)
				continue
			}
			return nil, fmt.Errorf("load documents: %w", err)

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			normalised, err := s.registry.Normalise(ctx, &raw)
			if err != nil {
				result.skipped++
				logger.Warn("Skipping %s: %v", raw.URI, err)
				continue
			}
			result.warnings += len(normalised.Warnings)
			result.documents = append(result.documents, normalised.Document)

			if n := len(result.documents); n%progressInterval == 0 {
				logger.Info("Loaded %d documents...", n)
			}
		}
	}

	// A cancelled walk closes both channels without an error
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// chunkDocuments runs every document through the pipeline in order.
func (s *IngestService) chunkDocuments(
	ctx context.Context,
	pipeline driven.PostProcessorPipeline,
	docs []domain.Document,
) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for i := range docs {
		docChunks, err := pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", docs[i].URI, err)
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

// embedChunks fills in every chunk's embedding, batching requests and
// running at most s.workers batches at once. Any failure aborts the run.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	batches := batchRanges(len(chunks), s.batchSize)
	logger.Debug("Embedding %d chunks in %d batches (%d workers)", len(chunks), len(batches), s.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, b := range batches {
		g.Go(func() error {
			texts := make([]string, 0, b.end-b.start)
			for i := b.start; i < b.end; i++ {
				texts = append(texts, chunks[i].Content)
			}

			vectors, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", b.start, b.end-1, err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts",
					b.start, b.end-1, len(vectors), len(texts))
			}

			// Each batch owns a disjoint range of chunks
			for i, v := range vectors {
				chunks[b.start+i].Embedding = v
			}
			return nil
		})
	}

	return g.Wait()
}

// rebuildCollection drops the collection, recreates it and upserts every
// chunk batch by batch.
func (s *IngestService) rebuildCollection(ctx context.Context, name string, dimensions int, chunks []domain.Chunk) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions unknown", domain.ErrEmbeddingUnavailable)
	}

	if err := s.index.Delete(ctx, name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}

	col, err := s.index.GetOrCreate(ctx, domain.CollectionSpec{
		Name:           name,
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dimensions,
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	logger.Debug("Created collection %s (%s, %d dimensions)", col.Name, col.EmbeddingModel, col.Dimensions)

	for _, b := range batchRanges(len(chunks), s.batchSize) {
		records := make([]domain.VectorRecord, 0, b.end-b.start)
		for _, c := range chunks[b.start:b.end] {
			records = append(records, domain.VectorRecord{
				ID:        c.ID,
				Embedding: c.Embedding,
				Text:      c.Content,
				Metadata:  c.Metadata,
			})
		}
		if err := s.index.Upsert(ctx, name, records); err != nil {
			return fmt.Errorf("index chunks %d-%d: %w", b.start, b.end-1, err)
		}
	}
	return nil
}

// batchRange is a half-open [start, end) range of chunk indexes.
type batchRange struct {
	start, end int
}

// batchRanges splits n items into consecutive ranges of at most size items.
func batchRanges(n, size int) []batchRange {
	if size <= 0 {
		size = 1
	}
	ranges := make([]batchRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, batchRange{start: start, end: min(start+size, n)})
	}
	return ranges
}
