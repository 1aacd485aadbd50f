package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(NewDefaultConfig()); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -1 },
			wantField: "server.read_timeout",
		},
		{
			name:      "relative admin prefix",
			mutate:    func(c *Config) { c.Server.AdminPrefix = "wp-admin" },
			wantField: "server.admin_prefix",
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Store.Driver = "postgres" },
			wantField: "store.driver",
		},
		{
			name:      "missing path",
			mutate:    func(c *Config) { c.Store.Path = "" },
			wantField: "store.path",
		},
		{
			name:      "unsafe table name",
			mutate:    func(c *Config) { c.Store.Table = "snippets; DROP TABLE x" },
			wantField: "store.table",
		},
		{
			name:      "identical tables",
			mutate:    func(c *Config) { c.Store.NetworkTable = c.Store.Table },
			wantField: "store.network_table",
		},
		{
			name:      "unknown sampler",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			wantField: "telemetry.tracing.sampler",
		},
		{
			name:      "sample ratio above one",
			mutate:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "bad cron expression",
			mutate:    func(c *Config) { c.Store.MaintenanceSchedule = "every day" },
			wantField: "store.maintenance_schedule",
		},
		{
			name:      "relative rest route",
			mutate:    func(c *Config) { c.Engine.RESTRoute = "wp-json/x" },
			wantField: "engine.rest_route",
		},
		{
			name:      "blocked snippet without id",
			mutate:    func(c *Config) { c.Execution.Blocked = []BlockedSnippet{{Table: DefaultTable}} },
			wantField: "execution.blocked[0].id",
		},
		{
			name:      "blocked snippet in unknown table",
			mutate:    func(c *Config) { c.Execution.Blocked = []BlockedSnippet{{ID: 1, Table: "other"}} },
			wantField: "execution.blocked[0].table",
		},
		{
			name:      "bad log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "unsorted buckets",
			mutate:    func(c *Config) { c.Telemetry.Metrics.ExecutionDurationBuckets = []float64{1, 0.5} },
			wantField: "telemetry.metrics.execution_duration_buckets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Driver = "memory"
	cfg.Store.Path = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("memory driver should not need a path: %v", err)
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error message: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "  - b: worse") {
		t.Errorf("unexpected multi error message: %q", msg)
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"snippets", "ms_snippets", "_x", "wp2_snippets"}
	invalid := []string{"", "2snippets", "snip-pets", "a b", "x;"}

	for _, s := range valid {
		if !isIdentifier(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if isIdentifier(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
