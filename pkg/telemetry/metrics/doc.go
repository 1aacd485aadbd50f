// Package metrics provides Prometheus metrics collection for the snippet
// engine.
//
// # Metrics Categories
//
//   - Dispatch metrics: executions by phase and outcome, execution duration,
//     content emission, condition results, safe-mode short circuits,
//     single-use deactivations and store queries
//   - Cache metrics: hits, misses, entries and evictions of the cross-request
//     active snippet cache
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordExecution("early", metrics.OutcomeExecuted, 3*time.Millisecond)
//	http.Handle("/metrics", collector.Handler())
//
// A nil *Collector, or one built from a disabled configuration, records
// nothing, so callers never need to guard their calls.
//
// # Prometheus Endpoint
//
//	# HELP snippets_engine_snippet_executions_total Total number of snippet execution decisions
//	# TYPE snippets_engine_snippet_executions_total counter
//	snippets_engine_snippet_executions_total{outcome="executed",phase="early"} 12
package metrics
