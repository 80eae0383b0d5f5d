package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

func TestNewManifestStore_Path(t *testing.T) {
	dir := t.TempDir()
	store := NewManifestStore(dir)
	assert.Equal(t, filepath.Join(dir, "manifest.toml"), store.Path())
}

func TestManifestStore_LoadMissing(t *testing.T) {
	store := NewManifestStore(t.TempDir())

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestManifestStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	store := NewManifestStore(dir)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	want := &domain.IndexManifest{
		Collection:     "vault",
		EmbeddingModel: "all-minilm",
		Dimensions:     384,
		ChunkSize:      800,
		ChunkOverlap:   100,
		Documents:      12,
		Chunks:         40,
		Skipped:        1,
		CreatedAt:      created,
	}

	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Collection, got.Collection)
	assert.Equal(t, want.EmbeddingModel, got.EmbeddingModel)
	assert.Equal(t, want.Dimensions, got.Dimensions)
	assert.Equal(t, want.ChunkSize, got.ChunkSize)
	assert.Equal(t, want.ChunkOverlap, got.ChunkOverlap)
	assert.Equal(t, want.Documents, got.Documents)
	assert.Equal(t, want.Chunks, got.Chunks)
	assert.Equal(t, want.Skipped, got.Skipped)
	assert.True(t, created.Equal(got.CreatedAt))

	// No temporary file is left behind
	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestManifestStore_FileIsReadableTOML(t *testing.T) {
	dir := t.TempDir()
	store := NewManifestStore(dir)

	require.NoError(t, store.Save(context.Background(), &domain.IndexManifest{
		Collection:     "vault",
		EmbeddingModel: "all-minilm",
		Dimensions:     384,
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "collection = 'vault'")
	assert.Contains(t, content, "[embedding]")
	assert.Contains(t, content, "model = 'all-minilm'")
	assert.Contains(t, content, "dimensions = 384")
}

func TestManifestStore_SaveReplaces(t *testing.T) {
	store := NewManifestStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.IndexManifest{Collection: "first"}))
	require.NoError(t, store.Save(ctx, &domain.IndexManifest{Collection: "second"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Collection)
}

func TestManifestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewManifestStore(dir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("not = [valid"), 0o600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestManifestStore_SaveNil(t *testing.T) {
	err := NewManifestStore(t.TempDir()).Save(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLayout(t *testing.T) {
	root := t.TempDir()
	layout := NewLayout(root)

	assert.Equal(t, root, layout.Root())
	assert.Equal(t, filepath.Join(root, "index"), layout.IndexDir())
	assert.Equal(t, filepath.Join(root, "chroma"), layout.VectorStoreDir())
	assert.False(t, layout.IndexExists())
	assert.False(t, layout.VectorStoreExists())

	require.NoError(t, layout.Ensure())
	assert.True(t, layout.IndexExists())
	assert.True(t, layout.VectorStoreExists())
}

func TestLayout_FileIsNotDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index"), []byte("x"), 0o600))

	assert.False(t, NewLayout(root).IndexExists())
}

func TestLayout_ExternalVectorStore(t *testing.T) {
	layout := NewLayout(t.TempDir()).WithExternalVectorStore()

	assert.True(t, layout.VectorStoreExists())
	assert.False(t, layout.IndexExists())
}
