package handlers

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hoslog/internal/logbook"
)

var metricsOnce sync.Once

func initMetrics(t *testing.T) {
	t.Helper()
	metricsOnce.Do(InitPrometheusMetrics)
}

func TestObserveSyncBatchCountsOutcomes(t *testing.T) {
	initMetrics(t)

	before := testutil.ToFloat64(syncEventsTotal.WithLabelValues("inserted"))
	observeSyncBatch(logbook.IngestResult{Inserted: 3, Duplicates: 1, Dropped: 2})

	if got := testutil.ToFloat64(syncEventsTotal.WithLabelValues("inserted")) - before; got != 3 {
		t.Fatalf("inserted delta = %v, want 3", got)
	}
}

func TestDroppedEventsCountedWhenBatchFails(t *testing.T) {
	initMetrics(t)

	before := testutil.ToFloat64(syncEventsTotal.WithLabelValues("dropped"))

	observeDroppedEvents(2)
	if got := testutil.ToFloat64(syncEventsTotal.WithLabelValues("dropped")) - before; got != 2 {
		t.Fatalf("dropped delta = %v, want 2", got)
	}

	// Clean batches must not inflate the dropped outcome.
	observeDroppedEvents(0)
	if got := testutil.ToFloat64(syncEventsTotal.WithLabelValues("dropped")) - before; got != 2 {
		t.Fatalf("dropped delta after zero observation = %v, want 2", got)
	}
}
