package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// --- Connector ---

// mockConnector implements driven.Connector over an in-memory file list.
type mockConnector struct {
	root        string
	docs        []domain.RawDocument
	itemErrs    []error
	fatalErr    error
	validateErr error
	closed      atomic.Bool
}

func (m *mockConnector) Type() string { return "mock" }
func (m *mockConnector) Root() string { return m.root }

func (m *mockConnector) Validate(_ context.Context) error { return m.validateErr }

func (m *mockConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error)

	go func() {
		defer close(docs)
		defer close(errs)

		for _, err := range m.itemErrs {
			select {
			case errs <- err:
			case <-ctx.Done():
				return
			}
		}
		for _, doc := range m.docs {
			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}
		if m.fatalErr != nil {
			select {
			case errs <- m.fatalErr:
			case <-ctx.Done():
			}
		}
	}()

	return docs, errs
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, errors.ErrUnsupported
}

func (m *mockConnector) Close() error {
	m.closed.Store(true)
	return nil
}

// mockConnectorFactory hands out a fixed connector.
type mockConnectorFactory struct {
	connector *mockConnector
	err       error
}

func (f *mockConnectorFactory) Create(_ context.Context, root string) (driven.Connector, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.connector.root = root
	return f.connector, nil
}

// markdownFile builds a raw Markdown document.
func markdownFile(path, content string) domain.RawDocument {
	return domain.RawDocument{URI: path, MIMEType: "text/markdown", Content: []byte(content)}
}

// --- Embedding ---

// mockEmbedder produces bag-of-words vectors. Each distinct word gets its
// own dimension until they run out, so unrelated texts score zero.
type mockEmbedder struct {
	model      string
	dimensions int
	embedErr   error
	batchErr   error
	closeErr   error

	calls      atomic.Int64
	batchCalls atomic.Int64
	inFlight   atomic.Int64
	maxFlight  atomic.Int64
	closed     atomic.Bool
	mu         sync.Mutex
	batchSizes []int
	vocabulary map[string]int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "mock-model", dimensions: 64}
}

func (m *mockEmbedder) vector(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vocabulary == nil {
		m.vocabulary = make(map[string]int)
	}

	v := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,#")
		if word == "" {
			continue
		}
		idx, ok := m.vocabulary[word]
		if !ok {
			idx = len(m.vocabulary)
			m.vocabulary[word] = idx
		}
		v[idx%m.dimensions]++
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxFlight.Load()
		if n <= cur || m.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.batchSizes = append(m.batchSizes, len(texts))
	m.mu.Unlock()

	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dimensions }
func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error {
	m.closed.Store(true)
	return m.closeErr
}

// --- Vector index ---

// failingIndex wraps a VectorIndex and fails selected operations.
type failingIndex struct {
	driven.VectorIndex
	queryErr  error
	upsertErr error
	listErr   error
	hits      []driven.VectorHit
	closed    atomic.Bool
}

func (f *failingIndex) Query(ctx context.Context, name string, vector []float32, k int) ([]driven.VectorHit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.hits != nil {
		if len(f.hits) > k {
			return f.hits[:k], nil
		}
		return f.hits, nil
	}
	return f.VectorIndex.Query(ctx, name, vector, k)
}

func (f *failingIndex) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, name, records)
}

func (f *failingIndex) ListCollections(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.VectorIndex.ListCollections(ctx)
}

func (f *failingIndex) Close() error {
	f.closed.Store(true)
	return nil
}

// --- Metrics ---

// recordingMetrics captures observations.
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	ingests  []domain.IngestReport
	ready    []bool
}

func (r *recordingMetrics) ObserveRetrieval(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) ObserveIngest(report *domain.IngestReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingests = append(r.ingests, *report)
}

func (r *recordingMetrics) SetReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, ready)
}

var errBoom = errors.New("boom")
