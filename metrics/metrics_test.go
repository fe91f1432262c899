package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordItem(t *testing.T) {
	before := testutil.ToFloat64(ItemsTotal.WithLabelValues("metrics-test", "published"))
	RecordItem("metrics-test", "published")
	RecordItem("metrics-test", "published")
	assert.Equal(t, before+2, testutil.ToFloat64(ItemsTotal.WithLabelValues("metrics-test", "published")))
}

func TestRecordStage(t *testing.T) {
	before := testutil.ToFloat64(StageBranchTotal.WithLabelValues("body", "fallback"))
	RecordStage("body", "fallback")
	assert.Equal(t, before+1, testutil.ToFloat64(StageBranchTotal.WithLabelValues("body", "fallback")))
}

func TestGauges(t *testing.T) {
	SetProcessedKeys(12)
	assert.Equal(t, 12.0, testutil.ToFloat64(ProcessedKeys))

	SetCircuitState(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(CircuitState))
	SetCircuitState(0)
}

func TestHistogramsAcceptObservations(t *testing.T) {
	RecordGeneration("success", 1500*time.Millisecond)
	RecordFetch("page", "success", 200*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(GenerationDuration, "feedenricher_generation_duration_seconds"))
}
