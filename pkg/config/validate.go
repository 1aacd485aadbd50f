package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateExecution(&cfg.Execution, &cfg.Store)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if !strings.HasPrefix(cfg.AdminPrefix, "/") {
		errs = append(errs, FieldError{
			Field:   "server.admin_prefix",
			Message: "admin prefix must start with '/'",
		})
	}
	if !strings.HasPrefix(cfg.RESTRoot, "/") {
		errs = append(errs, FieldError{
			Field:   "server.rest_root",
			Message: "REST root must start with '/'",
		})
	}

	return errs
}

// validateStore validates store configuration.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "store.driver",
			Message: fmt.Sprintf("invalid driver %q (must be: sqlite, sqlite3, memory)", cfg.Driver),
		})
	}

	if cfg.Driver != "memory" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "store.path",
			Message: "database path is required",
		})
	}

	if !isIdentifier(cfg.Table) {
		errs = append(errs, FieldError{
			Field:   "store.table",
			Message: fmt.Sprintf("invalid table name %q", cfg.Table),
		})
	}
	if !isIdentifier(cfg.NetworkTable) {
		errs = append(errs, FieldError{
			Field:   "store.network_table",
			Message: fmt.Sprintf("invalid table name %q", cfg.NetworkTable),
		})
	}
	if cfg.Table == cfg.NetworkTable {
		errs = append(errs, FieldError{
			Field:   "store.network_table",
			Message: "network table must differ from the site table",
		})
	}

	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "store.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}

	if cfg.MaintenanceSchedule != "" {
		if _, err := cron.ParseStandard(cfg.MaintenanceSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "store.maintenance_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateEngine validates engine configuration.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if !strings.HasPrefix(cfg.RESTRoute, "/") {
		errs = append(errs, FieldError{
			Field:   "engine.rest_route",
			Message: "REST route must start with '/'",
		})
	}

	return errs
}

// validateExecution validates execution configuration.
func validateExecution(cfg *ExecutionConfig, store *StoreConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "execution.timeout",
			Message: "timeout must be positive",
		})
	}

	for i, b := range cfg.Blocked {
		field := fmt.Sprintf("execution.blocked[%d]", i)
		if b.ID <= 0 {
			errs = append(errs, FieldError{
				Field:   field + ".id",
				Message: "snippet id must be positive",
			})
		}
		if b.Table != store.Table && b.Table != store.NetworkTable {
			errs = append(errs, FieldError{
				Field:   field + ".table",
				Message: fmt.Sprintf("unknown table %q", b.Table),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be: json, text, console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	for i := 1; i < len(cfg.Metrics.ExecutionDurationBuckets); i++ {
		if cfg.Metrics.ExecutionDurationBuckets[i] <= cfg.Metrics.ExecutionDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.execution_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be: always, never, ratio)", cfg.Tracing.Sampler),
		})
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}

// isIdentifier reports whether s is a safe SQL identifier. Table names are
// interpolated into statements, so only [A-Za-z_][A-Za-z0-9_]* is accepted.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
