package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Terminal outcomes of a webhook reconciliation attempt.
const (
	OutcomeCreated         = "created"
	OutcomeUpdated         = "updated"
	OutcomeUnresolved      = "unresolved"
	OutcomeIgnored         = "ignored"
	OutcomeUpstreamFailure = "upstream_failure"
)

// ReconciliationMetrics records terminal outcomes for notification processing
// and intent creation, suitable for alerting on unresolved references and
// provider failures.
type ReconciliationMetrics struct {
	outcomes *prometheus.CounterVec
	intents  *prometheus.CounterVec
}

// NewReconciliationMetrics registers the counters on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_outcomes_total",
		Help: "Terminal outcomes of webhook reconciliation attempts.",
	}, []string{"outcome", "topic"})
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_total",
		Help: "Payment intent creation attempts by result.",
	}, []string{"result"})
	reg.MustRegister(outcomes, intents)
	return &ReconciliationMetrics{
		outcomes: outcomes,
		intents:  intents,
	}
}

// RecordOutcome increments the counter for the given terminal outcome.
func (m *ReconciliationMetrics) RecordOutcome(outcome, topic string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome), normalizeLabel(topic)).Inc()
}

// RecordIntent increments the intent counter for the given result.
func (m *ReconciliationMetrics) RecordIntent(result string) {
	if m == nil || m.intents == nil {
		return
	}
	m.intents.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
