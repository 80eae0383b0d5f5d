// Package config resolves runtime settings from dotenv files, the process
// environment and command-line flags.
//
// Precedence, highest first: bound flags, the real environment, the local
// env file, the base env file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Default env file names.
const (
	DefaultEnvFile      = ".env"
	DefaultLocalEnvFile = "local.env"
)

// Configuration keys. Each key is also its environment variable name.
const (
	KeyVaultPath      = "VAULT_PATH"
	KeyStorageDir     = "STORAGE_DIR"
	KeyCollection     = "COLLECTION_NAME"
	KeyEmbedProvider  = "EMBED_PROVIDER"
	KeyEmbedModel     = "EMBED_MODEL"
	KeyEmbedBaseURL   = "EMBED_BASE_URL"
	KeyEmbedAPIKey    = "EMBED_API_KEY"
	KeyEmbedDims      = "EMBED_DIMENSIONS"
	KeyEmbedRateLimit = "EMBED_RATE_LIMIT"
	KeyEmbedBatchSize = "EMBED_BATCH_SIZE"
	KeyEmbedWorkers   = "EMBED_WORKERS"
	KeyDefaultTopK    = "DEFAULT_TOP_K"
	KeyMaxTopK        = "MAX_TOP_K"
	KeyFetchK         = "FETCH_K"
	KeyChunkSize      = "CHUNK_SIZE"
	KeyChunkOverlap   = "CHUNK_OVERLAP"
	KeyExtensions     = "MARKDOWN_EXTENSIONS"
	KeyExcludeDirs    = "EXCLUDE_DIRS"
	KeyVectorBackend  = "VECTOR_BACKEND"
	KeyPostgresDSN    = "POSTGRES_DSN"
	KeyHost           = "HOST"
	KeyPort           = "PORT"
	KeyMCPAllowlist   = "MCP_ALLOWLIST"
	KeyMCPDenylist    = "MCP_DENYLIST"
)

// ErrInvalidConfig wraps every settings validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings is the resolved configuration for all commands.
type Settings struct {
	VaultPath    string
	StorageDir   string
	Collection   string
	Embedding    domain.EmbeddingSettings
	DefaultTopK  int
	MaxTopK      int
	FetchK       int
	ChunkSize    int
	ChunkOverlap int
	Extensions   []string
	ExcludeDirs  []string

	VectorBackend domain.VectorBackend
	PostgresDSN   string

	Host string
	Port int

	MCPAllowlist []string
	MCPDenylist  []string
}

// LoadEnvFiles loads dotenv files into the process environment. Variables
// already set are never overwritten, so the local file is read first to take
// precedence over the base file. Missing files are skipped.
func LoadEnvFiles(envFile, localEnvFile string) error {
	for _, path := range []string{localEnvFile, envFile} {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Env file %s not found, skipping", path)
				continue
			}
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		logger.Debug("Loaded env file %s", path)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the built-in default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyVaultPath, "./example-vault")
	v.SetDefault(KeyStorageDir, "./storage")
	v.SetDefault(KeyCollection, "vault_md")
	v.SetDefault(KeyEmbedProvider, string(domain.AIProviderOllama))
	v.SetDefault(KeyEmbedModel, "")
	v.SetDefault(KeyEmbedBaseURL, "")
	v.SetDefault(KeyEmbedAPIKey, "")
	v.SetDefault(KeyEmbedDims, 0)
	v.SetDefault(KeyEmbedRateLimit, 0.0)
	v.SetDefault(KeyEmbedBatchSize, 32)
	v.SetDefault(KeyEmbedWorkers, 4)
	v.SetDefault(KeyDefaultTopK, 5)
	v.SetDefault(KeyMaxTopK, 20)
	v.SetDefault(KeyFetchK, 0)
	v.SetDefault(KeyChunkSize, 800)
	v.SetDefault(KeyChunkOverlap, 100)
	v.SetDefault(KeyExtensions, ".md,.mdx")
	v.SetDefault(KeyExcludeDirs, ".git,.obsidian,.trash,node_modules,.DS_Store,__pycache__")
	v.SetDefault(KeyVectorBackend, string(domain.VectorBackendSQLite))
	v.SetDefault(KeyPostgresDSN, "")
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8000)
	v.SetDefault(KeyMCPAllowlist, "")
	v.SetDefault(KeyMCPDenylist, "")
}

// FromViper builds settings from v. The result is not validated.
func FromViper(v *viper.Viper) *Settings {
	provider := domain.AIProvider(strings.ToLower(strings.TrimSpace(v.GetString(KeyEmbedProvider))))
	model := v.GetString(KeyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	return &Settings{
		VaultPath:  v.GetString(KeyVaultPath),
		StorageDir: v.GetString(KeyStorageDir),
		Collection: v.GetString(KeyCollection),
		Embedding: domain.EmbeddingSettings{
			Provider:   provider,
			Model:      model,
			BaseURL:    v.GetString(KeyEmbedBaseURL),
			APIKey:     v.GetString(KeyEmbedAPIKey),
			Dimensions: v.GetInt(KeyEmbedDims),
			RateLimit:  v.GetFloat64(KeyEmbedRateLimit),
			BatchSize:  v.GetInt(KeyEmbedBatchSize),
			Workers:    v.GetInt(KeyEmbedWorkers),
		},
		DefaultTopK:   v.GetInt(KeyDefaultTopK),
		MaxTopK:       v.GetInt(KeyMaxTopK),
		FetchK:        v.GetInt(KeyFetchK),
		ChunkSize:     v.GetInt(KeyChunkSize),
		ChunkOverlap:  v.GetInt(KeyChunkOverlap),
		Extensions:    SplitList(v.GetString(KeyExtensions)),
		ExcludeDirs:   SplitList(v.GetString(KeyExcludeDirs)),
		VectorBackend: domain.VectorBackend(strings.ToLower(strings.TrimSpace(v.GetString(KeyVectorBackend)))),
		PostgresDSN:   v.GetString(KeyPostgresDSN),
		Host:          v.GetString(KeyHost),
		Port:          v.GetInt(KeyPort),
		MCPAllowlist:  SplitList(v.GetString(KeyMCPAllowlist)),
		MCPDenylist:   SplitList(v.GetString(KeyMCPDenylist)),
	}
}

// Load reads env files and resolves settings from the environment.
func Load(envFile, localEnvFile string) (*Settings, error) {
	if err := LoadEnvFiles(envFile, localEnvFile); err != nil {
		return nil, err
	}
	s := FromViper(NewViper())
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that settings are usable.
func (s *Settings) Validate() error {
	var errs []error

	if s.StorageDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyStorageDir))
	}
	if s.Collection == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyCollection))
	}
	if !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("%s %q is not supported (want one of %v)",
			KeyEmbedProvider, s.Embedding.Provider, domain.AllEmbeddingProviders()))
	}
	if s.Embedding.Model == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyEmbedModel))
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required for %s", KeyEmbedAPIKey, s.Embedding.Provider))
	}
	if s.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyEmbedDims))
	}
	if s.Embedding.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyEmbedRateLimit))
	}
	if s.Embedding.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyEmbedBatchSize))
	}
	if s.Embedding.Workers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyEmbedWorkers))
	}
	if s.MaxTopK < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyMaxTopK))
	}
	if s.DefaultTopK < 1 || s.DefaultTopK > s.MaxTopK {
		errs = append(errs, fmt.Errorf("%s must be in [1, %s]", KeyDefaultTopK, KeyMaxTopK))
	}
	if s.FetchK < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyFetchK))
	}
	if s.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyChunkSize))
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		errs = append(errs, fmt.Errorf("%s must be in [0, %s)", KeyChunkOverlap, KeyChunkSize))
	}
	if len(s.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("%s must list at least one extension", KeyExtensions))
	}
	if !s.VectorBackend.IsValid() {
		errs = append(errs, fmt.Errorf("%s %q is not supported", KeyVectorBackend, s.VectorBackend))
	}
	if s.VectorBackend == domain.VectorBackendPostgres && s.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("%s is required for the postgres backend", KeyPostgresDSN))
	}
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be in [0, 65535]", KeyPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Address returns host:port for the HTTP server.
func (s *Settings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SplitList splits a comma-separated value, trimming blanks.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
