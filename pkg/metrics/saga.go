package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics tracks consumer-side saga progress and anomalies.
type SagaMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	duplicates  prometheus.Counter
	malformed   prometheus.Counter
}

// NewSagaMetrics registers the saga worker metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_transitions_total",
		Help: "Accepted saga state transitions.",
	}, []string{"trigger", "to_state"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_rejected_transitions_total",
		Help: "Saga triggers rejected as invalid for the current state.",
	}, []string{"trigger"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saga_duplicate_events_total",
		Help: "Envelopes skipped by the idempotency guard.",
	})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saga_malformed_messages_total",
		Help: "Broker messages dropped because they could not be decoded.",
	})
	reg.MustRegister(transitions, rejected, duplicates, malformed)
	return &SagaMetrics{
		transitions: transitions,
		rejected:    rejected,
		duplicates:  duplicates,
		malformed:   malformed,
	}
}

// IncTransition counts an accepted transition.
func (m *SagaMetrics) IncTransition(trigger, toState string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(trigger), normalizeLabel(toState)).Inc()
}

// IncRejected counts a trigger refused in the current state.
func (m *SagaMetrics) IncRejected(trigger string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncDuplicate counts an envelope already marked processed.
func (m *SagaMetrics) IncDuplicate() {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.Inc()
}

// IncMalformed counts a message acked without processing.
func (m *SagaMetrics) IncMalformed() {
	if m == nil || m.malformed == nil {
		return
	}
	m.malformed.Inc()
}
