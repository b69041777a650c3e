// Package metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "events_pipeline"

type Metrics struct {
	intakeTotal       *prometheus.CounterVec
	resolutionTotal   *prometheus.CounterVec
	migrationSlots    *prometheus.CounterVec
	downloadBytes     prometheus.Histogram
	migrationDuration prometheus.Summary
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intakeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_submissions_total",
			Help:      "Intake submissions by outcome",
		}, []string{"outcome"}),
		resolutionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_resolutions_total",
			Help:      "Entity resolutions by entity kind and strategy",
		}, []string{"entity", "strategy"}),
		migrationSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_migration_slots_total",
			Help:      "Media slot migrations by slot kind and outcome",
		}, []string{"slot", "outcome"}),
		downloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_download_bytes",
			Help:      "Size of downloaded media assets",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		}),
		migrationDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "media_migration_duration_seconds",
			Help:      "Wall time of media migration runs",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.intakeTotal, m.resolutionTotal, m.migrationSlots, m.downloadBytes, m.migrationDuration)
	}
	return m
}

func (m *Metrics) IntakeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.intakeTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Resolution(entity, strategy string) {
	if m == nil {
		return
	}
	m.resolutionTotal.WithLabelValues(entity, strategy).Inc()
}

func (m *Metrics) MigrationSlot(slot string, success bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "hosted"
	}
	m.migrationSlots.WithLabelValues(slot, outcome).Inc()
}

func (m *Metrics) DownloadSize(n int) {
	if m == nil {
		return
	}
	m.downloadBytes.Observe(float64(n))
}

func (m *Metrics) MigrationRun(d time.Duration) {
	if m == nil {
		return
	}
	m.migrationDuration.Observe(d.Seconds())
}
