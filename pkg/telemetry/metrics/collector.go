package metrics

import (
	"time"

	"mercator-hq/snippets/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Execution outcomes recorded by RecordExecution.
const (
	OutcomeExecuted = "executed"
	OutcomeFailed   = "failed"
	OutcomeEditing  = "skipped_editing"
	OutcomeVetoed   = "skipped_veto"
	OutcomeGated    = "skipped_condition"
)

// Deactivation modes recorded by RecordDeactivation.
const (
	DeactivationShared = "shared_list"
	DeactivationRow    = "row"
)

// Collector is the orchestrator for all Prometheus metrics of the engine.
// It manages metric registration and provides one entry point per event the
// dispatchers and store emit.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	dispatchMetrics *DispatchMetrics
	cacheMetrics    *CacheMetrics
}

// NewCollector creates a new metrics collector. If registry is nil a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.ExecutionDurationBuckets) == 0 {
		cfg.ExecutionDurationBuckets = append([]float64(nil), config.DefaultExecutionDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		dispatchMetrics: NewDispatchMetrics(cfg, registry),
		cacheMetrics:    NewCacheMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordExecution records one execution decision for a function snippet.
//
// Parameters:
//   - phase: lifecycle phase ("early", "conditional")
//   - outcome: one of the Outcome* constants
//   - duration: time spent in the executor; zero when nothing ran
func (c *Collector) RecordExecution(phase, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordExecution(phase, outcome, duration)
}

// RecordContentEmitted records a content snippet written to the page.
func (c *Collector) RecordContentEmitted(scope string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordContent(scope, "emitted")
}

// RecordContentSkipped records a content snippet suppressed by its condition.
func (c *Collector) RecordContentSkipped(scope string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordContent(scope, "skipped")
}

// RecordConditionEvaluation records one condition evaluation.
//
// Parameters:
//   - result: "true", "false" or "error"
func (c *Collector) RecordConditionEvaluation(result string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordCondition(result)
}

// RecordSafeMode records a safe-mode short circuit.
//
// Parameters:
//   - dispatcher: "early" or "conditional"
func (c *Collector) RecordSafeMode(dispatcher string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordSafeMode(dispatcher)
}

// RecordDeactivation records a single-use deactivation.
//
// Parameters:
//   - mode: DeactivationShared or DeactivationRow
func (c *Collector) RecordDeactivation(mode string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordDeactivation(mode)
}

// RecordStoreQuery records an active-snippet query issued by a dispatcher.
//
// Parameters:
//   - dispatcher: "content" or "function"
func (c *Collector) RecordStoreQuery(dispatcher string) {
	if !c.enabled() {
		return
	}
	c.dispatchMetrics.RecordStoreQuery(dispatcher)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// RecordCacheEviction records entries dropped by an invalidation.
func (c *Collector) RecordCacheEviction(cacheName string, count int) {
	if !c.enabled() || count <= 0 {
		return
	}
	c.cacheMetrics.RecordEvictions(cacheName, count)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
