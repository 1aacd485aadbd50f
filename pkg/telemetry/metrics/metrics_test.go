package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/snippets/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                  true,
		Namespace:                "test",
		Subsystem:                "engine",
		ExecutionDurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace default, got %q", cfg.Namespace)
	}
	if cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("expected subsystem default, got %q", cfg.Subsystem)
	}
	if len(cfg.ExecutionDurationBuckets) == 0 {
		t.Error("expected default buckets")
	}
}

func TestCollector_RecordExecution(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordExecution("early", OutcomeExecuted, 2*time.Millisecond)
	collector.RecordExecution("early", OutcomeExecuted, 3*time.Millisecond)
	collector.RecordExecution("early", OutcomeEditing, 0)
	collector.RecordExecution("conditional", OutcomeVetoed, 0)

	executions := collector.dispatchMetrics.executionsTotal
	if got := testutil.ToFloat64(executions.WithLabelValues("early", OutcomeExecuted)); got != 2 {
		t.Errorf("expected 2 executed, got %v", got)
	}
	if got := testutil.ToFloat64(executions.WithLabelValues("early", OutcomeEditing)); got != 1 {
		t.Errorf("expected 1 editing skip, got %v", got)
	}
	if got := testutil.ToFloat64(executions.WithLabelValues("conditional", OutcomeVetoed)); got != 1 {
		t.Errorf("expected 1 veto, got %v", got)
	}

	// Only the two executed snippets were timed.
	if got := testutil.CollectAndCount(collector.dispatchMetrics.executionDuration); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestCollector_DispatchCounters(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	dm := collector.dispatchMetrics

	collector.RecordContentEmitted("head-content")
	collector.RecordContentSkipped("head-content")
	collector.RecordConditionEvaluation("true")
	collector.RecordConditionEvaluation("error")
	collector.RecordSafeMode("early")
	collector.RecordDeactivation(DeactivationRow)
	collector.RecordStoreQuery("function")
	collector.RecordStoreQuery("function")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"content emitted", testutil.ToFloat64(dm.contentTotal.WithLabelValues("head-content", "emitted")), 1},
		{"content skipped", testutil.ToFloat64(dm.contentTotal.WithLabelValues("head-content", "skipped")), 1},
		{"condition true", testutil.ToFloat64(dm.conditionsTotal.WithLabelValues("true")), 1},
		{"condition error", testutil.ToFloat64(dm.conditionsTotal.WithLabelValues("error")), 1},
		{"safe mode", testutil.ToFloat64(dm.safeModeTotal.WithLabelValues("early")), 1},
		{"deactivation", testutil.ToFloat64(dm.deactivations.WithLabelValues(DeactivationRow)), 1},
		{"store queries", testutil.ToFloat64(dm.storeQueries.WithLabelValues("function")), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestCollector_CacheMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	cm := collector.cacheMetrics

	collector.RecordCacheHit("active_snippets")
	collector.RecordCacheMiss("active_snippets")
	collector.RecordCacheMiss("active_snippets")
	collector.UpdateCacheSize("active_snippets", 3)
	collector.RecordCacheEviction("active_snippets", 2)
	collector.RecordCacheEviction("active_snippets", 0)

	if got := testutil.ToFloat64(cm.hitsTotal.WithLabelValues("active_snippets")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(cm.missesTotal.WithLabelValues("active_snippets")); got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(cm.entries.WithLabelValues("active_snippets")); got != 3 {
		t.Errorf("expected 3 entries, got %v", got)
	}
	if got := testutil.ToFloat64(cm.evictionsTotal.WithLabelValues("active_snippets")); got != 2 {
		t.Errorf("expected 2 evictions, got %v", got)
	}
}

func TestCollector_DisabledAndNil(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordExecution("early", OutcomeExecuted, time.Millisecond)
	collector.RecordStoreQuery("content")

	if got := testutil.ToFloat64(collector.dispatchMetrics.storeQueries.WithLabelValues("content")); got != 0 {
		t.Errorf("disabled collector recorded %v queries", got)
	}

	var none *Collector
	none.RecordExecution("early", OutcomeExecuted, time.Millisecond)
	none.RecordCacheHit("x")
	none.RecordSafeMode("early")
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordSafeMode("conditional")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_engine_safe_mode_short_circuits_total") {
		t.Errorf("metrics output missing safe mode counter:\n%s", rec.Body.String())
	}
}
