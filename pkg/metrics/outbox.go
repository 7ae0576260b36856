package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics tracks the dispatch loop: backlog depth, publish outcomes, and
// cycle durations.
type OutboxMetrics struct {
	backlog   prometheus.Gauge
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	cycles    prometheus.Histogram
}

// NewOutboxMetrics registers the outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_unsent_records",
		Help: "Outbox records awaiting dispatch.",
	})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox records dispatched to the broker.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox dispatch attempts that failed.",
	}, []string{"event_type"})
	cycles := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_cycle_duration_seconds",
		Help:    "Duration of outbox poll-publish cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(backlog, published, failed, cycles)
	return &OutboxMetrics{
		backlog:   backlog,
		published: published,
		failed:    failed,
		cycles:    cycles,
	}
}

// SetBacklog records the current unsent record count.
func (m *OutboxMetrics) SetBacklog(count int64) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(count))
}

// IncPublished counts a successful dispatch for the event type.
func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed counts a failed dispatch attempt for the event type.
func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// ObserveCycle records the wall time of one poll-publish cycle.
func (m *OutboxMetrics) ObserveCycle(seconds float64) {
	if m == nil || m.cycles == nil {
		return
	}
	m.cycles.Observe(seconds)
}
