package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/vault-rag/internal/config"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
)

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	report *domain.IngestReport
	err    error

	calls int
	opts  domain.IngestOptions
}

var _ driving.IngestService = (*mockIngestService)(nil)

func (m *mockIngestService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.calls++
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	loadErr error
	resp    *domain.RetrievalResponse
	err     error
	health  domain.HealthStatus

	loaded   bool
	closed   bool
	gotQuery string
	gotTopK  int
}

var _ driving.RetrievalService = (*mockRetrievalService)(nil)

func (m *mockRetrievalService) Load(_ context.Context) error {
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int) (*domain.RetrievalResponse, error) {
	m.gotQuery = query
	m.gotTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *mockRetrievalService) Health(_ context.Context) domain.HealthStatus { return m.health }

func (m *mockRetrievalService) Close() error {
	m.closed = true
	return nil
}

// withServices swaps the package-level services for the duration of t.
func withServices(t *testing.T, ingest driving.IngestService, retrieval driving.RetrievalService) {
	t.Helper()
	oldIngest, oldRetrieval := ingestService, retrievalService
	ingestService, retrievalService = ingest, retrieval
	t.Cleanup(func() {
		ingestService, retrievalService = oldIngest, oldRetrieval
	})
}

var configKeys = []string{
	config.KeyVaultPath, config.KeyStorageDir, config.KeyCollection,
	config.KeyEmbedProvider, config.KeyEmbedModel, config.KeyEmbedBaseURL,
	config.KeyEmbedAPIKey, config.KeyEmbedDims, config.KeyEmbedRateLimit,
	config.KeyEmbedBatchSize, config.KeyEmbedWorkers, config.KeyDefaultTopK,
	config.KeyMaxTopK, config.KeyFetchK, config.KeyChunkSize, config.KeyChunkOverlap,
	config.KeyExtensions, config.KeyExcludeDirs, config.KeyVectorBackend,
	config.KeyPostgresDSN, config.KeyHost, config.KeyPort,
	config.KeyMCPAllowlist, config.KeyMCPDenylist,
}

// isolateEnv runs t in an empty directory with every config variable unset.
// Variables are restored when t ends.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key) //nolint:errcheck
	}
	return dir
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	setContext(rootCmd, ctx)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// setContext sets ctx on the whole command tree. Cobra only propagates a
// context to subcommands that do not have one yet.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
