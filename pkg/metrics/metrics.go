// Package metrics defines the prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the ledger collectors. A nil *Metrics is a no-op so the
// engine and services stay usable in tests without a registry.
type Metrics struct {
	operations  *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	events      *prometheus.CounterVec
	journalSize prometheus.Gauge
}

// New registers the collectors on the given registerer. Callers own the
// registry, so tests can use a fresh one per instance.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger state transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations, external transfer included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Committed ledger events by kind.",
		}, []string{"kind"}),
		journalSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_journal_pending",
			Help: "Events waiting in the local journal for durable flush.",
		}),
	}
	reg.MustRegister(m.operations, m.opDuration, m.events, m.journalSize)
	return m
}

// Operation records one ledger operation outcome and its duration.
func (m *Metrics) Operation(name string, err error, started time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(name, outcome).Inc()
	m.opDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

// Event counts a committed event by kind.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// JournalSize reports the current journal backlog.
func (m *Metrics) JournalSize(n int) {
	if m == nil {
		return
	}
	m.journalSize.Set(float64(n))
}
