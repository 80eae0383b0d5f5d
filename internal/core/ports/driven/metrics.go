package driven

import (
	"time"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// Outcome labels for retrieval observations. Failures use the
// domain.ErrorKind of the error.
const OutcomeOK = "ok"

// MetricsRecorder receives operational measurements from the services.
type MetricsRecorder interface {
	// ObserveRetrieval records one retrieval request.
	ObserveRetrieval(outcome string, elapsed time.Duration)

	// ObserveIngest records a completed ingestion run.
	ObserveIngest(report *domain.IngestReport)

	// SetReady records whether the retrieval service is serving.
	SetReady(ready bool)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

// ObserveRetrieval does nothing.
func (NopMetrics) ObserveRetrieval(string, time.Duration) {}

// ObserveIngest does nothing.
func (NopMetrics) ObserveIngest(*domain.IngestReport) {}

// SetReady does nothing.
func (NopMetrics) SetReady(bool) {}
