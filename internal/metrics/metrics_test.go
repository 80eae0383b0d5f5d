package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

func newTestExporter() *Exporter {
	return New(Config{})
}

func TestExporter_ObserveRetrieval(t *testing.T) {
	e := newTestExporter()

	e.ObserveRetrieval("ok", 20*time.Millisecond)
	e.ObserveRetrieval("ok", 30*time.Millisecond)
	e.ObserveRetrieval(string(domain.KindValidation), time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(e.retrievalRequests.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(e.retrievalRequests.WithLabelValues("validation")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(e.retrievalLatency))
}

func TestExporter_ObserveIngest(t *testing.T) {
	e := newTestExporter()

	e.ObserveIngest(&domain.IngestReport{Documents: 3, Chunks: 10, Skipped: 1, Duration: 2 * time.Second})
	e.ObserveIngest(nil)

	assert.InDelta(t, 1, testutil.ToFloat64(e.ingestRuns), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(e.ingestDocuments), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(e.ingestChunks), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(e.ingestSkipped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(e.ingestDuration), 0)
}

func TestExporter_SetReady(t *testing.T) {
	e := newTestExporter()

	assert.InDelta(t, 0, testutil.ToFloat64(e.ready), 0)
	e.SetReady(true)
	assert.InDelta(t, 1, testutil.ToFloat64(e.ready), 0)
	e.SetReady(false)
	assert.InDelta(t, 0, testutil.ToFloat64(e.ready), 0)
}

func TestExporter_Handler(t *testing.T) {
	e := New(DefaultConfig())
	e.ObserveRetrieval("ok", time.Millisecond)

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `vault_rag_retrieval_requests_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestExporter_SeparateRegistries(t *testing.T) {
	// Two exporters must not collide on registration
	assert.NotPanics(t, func() {
		_ = newTestExporter()
		_ = newTestExporter()
	})
}
