package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IntakeOutcome("created")
	m.IntakeOutcome("created")
	m.IntakeOutcome("duplicate")
	m.MigrationSlot("hero", true)
	m.MigrationSlot("hero", false)
	m.DownloadSize(2048)
	m.MigrationRun(time.Second)

	if got := testutil.ToFloat64(m.intakeTotal.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.migrationSlots.WithLabelValues("hero", "failed")); got != 1 {
		t.Fatalf("expected 1 failed slot, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IntakeOutcome("created")
	m.Resolution("location", "created")
	m.MigrationSlot("flyer", true)
	m.DownloadSize(1)
	m.MigrationRun(time.Millisecond)
}
