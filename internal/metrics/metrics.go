package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	DecisionsTotal    *prometheus.CounterVec
	AggregateDuration prometheus.Histogram

	QueueDepthConsumption prometheus.Gauge
	QueueDepthRulesets    prometheus.Gauge
	QueueDepthActivations prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Decisions dispatched to the upstream backend, by kind, decision, and outcome.",
		}, []string{"kind", "decision", "outcome"}),

		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "approval_queue_aggregation_seconds",
			Help:    "Time to recompute the approval queue from the collection snapshots.",
			Buckets: prometheus.DefBuckets,
		}),

		QueueDepthConsumption: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "approval_queue_consumption",
			Help: "Pending consumption submissions at the last aggregation.",
		}),
		QueueDepthRulesets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "approval_queue_scoring_rulesets",
			Help: "Pending scoring-ruleset drafts at the last aggregation.",
		}),
		QueueDepthActivations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "approval_queue_customer_activations",
			Help: "Pending customer-activation requests at the last aggregation.",
		}),
	}

	reg.MustRegister(
		m.DecisionsTotal,
		m.AggregateDuration,
		m.QueueDepthConsumption,
		m.QueueDepthRulesets,
		m.QueueDepthActivations,
	)

	return m
}

// ObserveAggregation records one aggregation pass: its latency and the
// per-kind queue depths it produced.
func (m *Metrics) ObserveAggregation(counts domain.QueueCounts, elapsed time.Duration) {
	m.AggregateDuration.Observe(elapsed.Seconds())
	m.QueueDepthConsumption.Set(float64(counts.Consumption))
	m.QueueDepthRulesets.Set(float64(counts.ScoringRulesets))
	m.QueueDepthActivations.Set(float64(counts.CustomerActivations))
}

// ObserveDecision counts one dispatched decision.
// outcome is "applied", "conflict", or "error".
func (m *Metrics) ObserveDecision(kind domain.Kind, decision domain.Decision, outcome string) {
	m.DecisionsTotal.WithLabelValues(string(kind), string(decision), outcome).Inc()
}
