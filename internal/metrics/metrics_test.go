package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDecision(t *testing.T) {
	before := testutil.ToFloat64(ModerationDecisions.WithLabelValues("ai", "APPROVED"))

	ObserveDecision("ai", "APPROVED")
	ObserveDecision("ai", "APPROVED")

	after := testutil.ToFloat64(ModerationDecisions.WithLabelValues("ai", "APPROVED"))
	assert.Equal(t, before+2, after)
}

func TestObserveClassifierCall(t *testing.T) {
	before := testutil.ToFloat64(ClassifierRequests.WithLabelValues("classify", "unavailable"))

	ObserveClassifierCall("classify", "unavailable", 150*time.Millisecond)

	after := testutil.ToFloat64(ClassifierRequests.WithLabelValues("classify", "unavailable"))
	assert.Equal(t, before+1, after)
}

func TestObserveExport(t *testing.T) {
	t.Run("counts records", func(t *testing.T) {
		before := testutil.ToFloat64(ExportRecords.WithLabelValues("csv"))
		ObserveExport("csv", "success", 42)
		assert.Equal(t, before+42, testutil.ToFloat64(ExportRecords.WithLabelValues("csv")))
	})

	t.Run("empty export only counts the export", func(t *testing.T) {
		beforeTotal := testutil.ToFloat64(ExportsTotal.WithLabelValues("json", "success"))
		ObserveExport("json", "success", 0)
		assert.Equal(t, beforeTotal+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("json", "success")))
	})
}
