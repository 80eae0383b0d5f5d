package postprocessors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/postprocessors/chunker"
)

// namedProcessor passes chunks through unchanged.
type namedProcessor struct {
	name string
}

func (m *namedProcessor) Name() string { return m.name }

func (m *namedProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func builderFor(name string) BuilderFunc {
	return func(_ Settings) (driven.PostProcessor, error) {
		return &namedProcessor{name: name}, nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("noop", builderFor("noop")))

	assert.True(t, r.Has("noop"))
	assert.False(t, r.Has("other"))

	proc, err := r.Build("noop", nil)
	require.NoError(t, err)
	assert.Equal(t, "noop", proc.Name())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("noop", builderFor("noop")))

	err := r.Register("noop", builderFor("noop"))
	assert.ErrorIs(t, err, ErrDuplicateProcessor)
}

func TestRegistry_BuildUnknown(t *testing.T) {
	_, err := NewRegistry().Build("stemmer", nil)

	assert.ErrorIs(t, err, ErrUnknownProcessor)
	assert.Contains(t, err.Error(), "stemmer")
}

func TestRegistry_BuildPassesSettings(t *testing.T) {
	r := NewRegistry()
	var got Settings
	require.NoError(t, r.Register("sample", func(s Settings) (driven.PostProcessor, error) {
		got = s
		return &namedProcessor{name: "sample"}, nil
	}))

	_, err := r.Build("sample", Settings{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, Settings{"k": 1}, got)
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	require.NoError(t, r.Register("beta", builderFor("beta")))
	require.NoError(t, r.Register("alpha", builderFor("alpha")))

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestSettings_Int(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     int
		wantOK   bool
	}{
		{"int", Settings{"n": 100}, 100, true},
		{"int64 from toml", Settings{"n": int64(200)}, 200, true},
		{"float64 from json", Settings{"n": float64(300)}, 300, true},
		{"string", Settings{"n": "400"}, 0, false},
		{"missing", Settings{"other": 1}, 0, false},
		{"nil settings", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.settings.Int("n")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	assert.Equal(t, []string{ProcessorChunker}, r.Names())
	assert.ErrorIs(t, RegisterDefaults(r), ErrDuplicateProcessor)
}

func TestBuildChunker(t *testing.T) {
	tests := []struct {
		name        string
		settings    Settings
		wantSize    int
		wantOverlap int
		wantErr     bool
	}{
		{
			name:        "explicit sizes",
			settings:    Settings{SettingChunkSize: 500, SettingOverlap: 50},
			wantSize:    500,
			wantOverlap: 50,
		},
		{
			name:        "zero overlap is kept",
			settings:    Settings{SettingChunkSize: 500, SettingOverlap: 0},
			wantSize:    500,
			wantOverlap: 0,
		},
		{
			name:        "nil settings use defaults",
			wantSize:    chunker.DefaultChunkSize,
			wantOverlap: chunker.DefaultChunkOverlap,
		},
		{
			name:        "default overlap fits a small chunk",
			settings:    Settings{SettingChunkSize: 40},
			wantSize:    40,
			wantOverlap: 10,
		},
		{
			name:     "overlap not below size",
			settings: Settings{SettingChunkSize: 100, SettingOverlap: 100},
			wantErr:  true,
		},
		{
			name:     "negative overlap",
			settings: Settings{SettingChunkSize: 100, SettingOverlap: -1},
			wantErr:  true,
		},
		{
			name:     "zero size",
			settings: Settings{SettingChunkSize: 0},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := buildChunker(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			c, ok := proc.(*chunker.Processor)
			require.True(t, ok)
			assert.Equal(t, ProcessorChunker, c.Name())
			assert.Equal(t, tt.wantSize, c.ChunkSize())
			assert.Equal(t, tt.wantOverlap, c.Overlap())
		})
	}
}
