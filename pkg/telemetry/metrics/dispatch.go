package metrics

import (
	"time"

	"mercator-hq/snippets/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks what the dispatchers did with each snippet.
//
// Metrics:
//   - snippet_executions_total: execution decisions by phase and outcome
//   - snippet_execution_duration_seconds: executor latency by phase
//   - content_snippets_total: content snippets by scope and result
//   - condition_evaluations_total: condition evaluations by result
//   - safe_mode_short_circuits_total: passes skipped by safe mode
//   - single_use_deactivations_total: deactivations by mode
//   - store_queries_total: active snippet queries by dispatcher
type DispatchMetrics struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	contentTotal      *prometheus.CounterVec
	conditionsTotal   *prometheus.CounterVec
	safeModeTotal     *prometheus.CounterVec
	deactivations     *prometheus.CounterVec
	storeQueries      *prometheus.CounterVec
}

// NewDispatchMetrics creates and registers dispatch metrics with the provided registry.
func NewDispatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DispatchMetrics {
	dm := &DispatchMetrics{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snippet_executions_total",
				Help:      "Total number of snippet execution decisions",
			},
			[]string{"phase", "outcome"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snippet_execution_duration_seconds",
				Help:      "Duration of snippet execution in seconds",
				Buckets:   cfg.ExecutionDurationBuckets,
			},
			[]string{"phase"},
		),

		contentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "content_snippets_total",
				Help:      "Total number of content snippets considered for output",
			},
			[]string{"scope", "result"},
		),

		conditionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "condition_evaluations_total",
				Help:      "Total number of condition snippet evaluations",
			},
			[]string{"result"},
		),

		safeModeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "safe_mode_short_circuits_total",
				Help:      "Total number of evaluation passes skipped by safe mode",
			},
			[]string{"dispatcher"},
		),

		deactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "single_use_deactivations_total",
				Help:      "Total number of single-use snippet deactivations",
			},
			[]string{"mode"},
		),

		storeQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_queries_total",
				Help:      "Total number of active snippet queries",
			},
			[]string{"dispatcher"},
		),
	}

	registry.MustRegister(
		dm.executionsTotal,
		dm.executionDuration,
		dm.contentTotal,
		dm.conditionsTotal,
		dm.safeModeTotal,
		dm.deactivations,
		dm.storeQueries,
	)

	return dm
}

// RecordExecution records an execution decision. Duration is observed only
// for snippets that actually reached the executor.
func (dm *DispatchMetrics) RecordExecution(phase, outcome string, duration time.Duration) {
	dm.executionsTotal.WithLabelValues(phase, outcome).Inc()
	if outcome == OutcomeExecuted || outcome == OutcomeFailed {
		dm.executionDuration.WithLabelValues(phase).Observe(duration.Seconds())
	}
}

// RecordContent records a content snippet decision.
func (dm *DispatchMetrics) RecordContent(scope, result string) {
	dm.contentTotal.WithLabelValues(scope, result).Inc()
}

// RecordCondition records a condition evaluation result.
func (dm *DispatchMetrics) RecordCondition(result string) {
	dm.conditionsTotal.WithLabelValues(result).Inc()
}

// RecordSafeMode records a safe-mode short circuit.
func (dm *DispatchMetrics) RecordSafeMode(dispatcher string) {
	dm.safeModeTotal.WithLabelValues(dispatcher).Inc()
}

// RecordDeactivation records a single-use deactivation.
func (dm *DispatchMetrics) RecordDeactivation(mode string) {
	dm.deactivations.WithLabelValues(mode).Inc()
}

// RecordStoreQuery records an active snippet query.
func (dm *DispatchMetrics) RecordStoreQuery(dispatcher string) {
	dm.storeQueries.WithLabelValues(dispatcher).Inc()
}
