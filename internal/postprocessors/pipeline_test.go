package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// stubProcessor returns fixed chunks, or passes its input through when
// chunks is nil.
type stubProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error

	received []domain.Chunk
}

func (m *stubProcessor) Name() string { return m.name }

func (m *stubProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	m.received = chunks
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func testDoc() *domain.Document {
	return &domain.Document{ID: "doc-1", URI: "/vault/a.md", Content: "alpha"}
}

func TestPipeline_Empty(t *testing.T) {
	p := NewPipeline()
	assert.Zero(t, p.Len())

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_ChainsStages(t *testing.T) {
	first := &stubProcessor{name: "split", chunks: []domain.Chunk{
		{ID: "c0", DocumentID: "doc-1", Content: "al"},
		{ID: "c1", DocumentID: "doc-1", Content: "pha"},
	}}
	second := &stubProcessor{name: "passthrough"}

	p := NewPipeline(first)
	p.Add(second)
	assert.Equal(t, []string{"split", "passthrough"}, p.Names())

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)

	assert.Nil(t, first.received, "the first stage starts from nil")
	assert.Equal(t, first.chunks, second.received)
	assert.Equal(t, first.chunks, chunks)
}

func TestPipeline_StageError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&stubProcessor{name: "failing", err: boom})

	_, err := p.Process(context.Background(), testDoc())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "processor failing")
}

func TestPipeline_RejectsForeignChunks(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "split", chunks: []domain.Chunk{
		{ID: "c0", DocumentID: "doc-2", Content: "x"},
	}})

	_, err := p.Process(context.Background(), testDoc())
	assert.ErrorIs(t, err, ErrForeignChunk)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := &stubProcessor{name: "split"}
	_, err := NewPipeline(stage).Process(ctx, testDoc())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, stage.received)
}
