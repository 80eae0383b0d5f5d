package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// clearEnv unsets every configuration key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		KeyVaultPath, KeyStorageDir, KeyCollection, KeyEmbedProvider, KeyEmbedModel,
		KeyEmbedBaseURL, KeyEmbedAPIKey, KeyEmbedDims, KeyEmbedRateLimit, KeyEmbedBatchSize,
		KeyEmbedWorkers, KeyDefaultTopK, KeyMaxTopK, KeyFetchK, KeyChunkSize, KeyChunkOverlap,
		KeyExtensions, KeyExcludeDirs, KeyVectorBackend, KeyPostgresDSN, KeyHost, KeyPort,
		KeyMCPAllowlist, KeyMCPDenylist,
	}
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

func validSettings() *Settings {
	clearViper := viper.New()
	SetDefaults(clearViper)
	return FromViper(clearViper)
}

func TestFromViper_Defaults(t *testing.T) {
	s := validSettings()

	assert.Equal(t, "./example-vault", s.VaultPath)
	assert.Equal(t, "./storage", s.StorageDir)
	assert.Equal(t, "vault_md", s.Collection)
	assert.Equal(t, domain.AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, 5, s.DefaultTopK)
	assert.Equal(t, 20, s.MaxTopK)
	assert.Equal(t, 800, s.ChunkSize)
	assert.Equal(t, 100, s.ChunkOverlap)
	assert.Equal(t, []string{".md", ".mdx"}, s.Extensions)
	assert.Equal(t, []string{".git", ".obsidian", ".trash", "node_modules", ".DS_Store", "__pycache__"}, s.ExcludeDirs)
	assert.Equal(t, domain.VectorBackendSQLite, s.VectorBackend)
	assert.Equal(t, "0.0.0.0:8000", s.Address())
	assert.Empty(t, s.MCPAllowlist)
	assert.NoError(t, s.Validate())
}

func TestFromViper_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyVaultPath, "/notes")
	t.Setenv(KeyEmbedProvider, "OpenAI")
	t.Setenv(KeyEmbedAPIKey, "sk-test")
	t.Setenv(KeyDefaultTopK, "3")
	t.Setenv(KeyMCPAllowlist, "retrieve, health ,")
	t.Setenv(KeyVectorBackend, "memory")

	s := FromViper(NewViper())

	assert.Equal(t, "/notes", s.VaultPath)
	assert.Equal(t, domain.AIProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, "sk-test", s.Embedding.APIKey)
	assert.Equal(t, 3, s.DefaultTopK)
	assert.Equal(t, []string{"retrieve", "health"}, s.MCPAllowlist)
	assert.Equal(t, domain.VectorBackendMemory, s.VectorBackend)
	assert.NoError(t, s.Validate())
}

func TestLoadEnvFiles_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	localFile := filepath.Join(dir, "local.env")

	require.NoError(t, os.WriteFile(envFile,
		[]byte("COLLECTION_NAME=from_env\nSTORAGE_DIR=/base\nVAULT_PATH=/base-vault\n"), 0o600))
	require.NoError(t, os.WriteFile(localFile,
		[]byte("COLLECTION_NAME=from_local\nVAULT_PATH=/local-vault\n"), 0o600))
	t.Setenv(KeyVaultPath, "/real")

	require.NoError(t, LoadEnvFiles(envFile, localFile))
	s := FromViper(NewViper())

	assert.Equal(t, "from_local", s.Collection, "local file wins over base file")
	assert.Equal(t, "/base", s.StorageDir, "base file fills gaps")
	assert.Equal(t, "/real", s.VaultPath, "real environment wins over both")
}

func TestLoadEnvFiles_MissingFilesSkipped(t *testing.T) {
	dir := t.TempDir()
	err := LoadEnvFiles(filepath.Join(dir, "nope.env"), filepath.Join(dir, "nope-local.env"))
	assert.NoError(t, err)
	assert.NoError(t, LoadEnvFiles("", ""))
}

func TestLoad_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyChunkOverlap, "900")

	_, err := Load("", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"overlap equals size", func(s *Settings) { s.ChunkOverlap = s.ChunkSize }, KeyChunkOverlap},
		{"negative overlap", func(s *Settings) { s.ChunkOverlap = -1 }, KeyChunkOverlap},
		{"zero chunk size", func(s *Settings) { s.ChunkSize = 0 }, KeyChunkSize},
		{"default above max", func(s *Settings) { s.DefaultTopK = 30 }, KeyDefaultTopK},
		{"zero max", func(s *Settings) { s.MaxTopK = 0 }, KeyMaxTopK},
		{"unknown provider", func(s *Settings) { s.Embedding.Provider = "hf" }, KeyEmbedProvider},
		{"openai without key", func(s *Settings) {
			s.Embedding.Provider = domain.AIProviderOpenAI
		}, KeyEmbedAPIKey},
		{"empty model", func(s *Settings) { s.Embedding.Model = "" }, KeyEmbedModel},
		{"zero workers", func(s *Settings) { s.Embedding.Workers = 0 }, KeyEmbedWorkers},
		{"zero batch", func(s *Settings) { s.Embedding.BatchSize = 0 }, KeyEmbedBatchSize},
		{"unknown backend", func(s *Settings) { s.VectorBackend = "chroma" }, KeyVectorBackend},
		{"postgres without dsn", func(s *Settings) { s.VectorBackend = domain.VectorBackendPostgres }, KeyPostgresDSN},
		{"no extensions", func(s *Settings) { s.Extensions = nil }, KeyExtensions},
		{"bad port", func(s *Settings) { s.Port = 70000 }, KeyPort},
		{"empty collection", func(s *Settings) { s.Collection = "" }, KeyCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)

			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	s := validSettings()
	s.ChunkSize = 0
	s.MaxTopK = 0

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyChunkSize)
	assert.Contains(t, err.Error(), KeyMaxTopK)
}

func TestValidate_UnknownProviderListsChoices(t *testing.T) {
	s := validSettings()
	s.Embedding.Provider = "hf"

	err := s.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "[ollama openai]")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , "))
	assert.Equal(t, []string{"a", "b"}, SplitList("a, b"))
}
