package config

import "time"

// Config is the root configuration structure for the snippet engine.
type Config struct {
	// Server contains HTTP host configuration.
	Server ServerConfig `yaml:"server"`

	// Store contains snippet storage configuration.
	Store StoreConfig `yaml:"store"`

	// Engine contains dispatcher configuration including safe mode.
	Engine EngineConfig `yaml:"engine"`

	// Execution contains settings for the snippet execution sandbox and the
	// config-driven execution filters.
	Execution ExecutionConfig `yaml:"execution"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP host.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AdminPrefix marks administrative requests. Requests whose path starts
	// with it run admin-scoped snippets instead of front-end ones.
	// Default: "/wp-admin"
	AdminPrefix string `yaml:"admin_prefix"`

	// RESTRoot marks JSON API requests.
	// Default: "/wp-json"
	RESTRoot string `yaml:"rest_root"`
}

// StoreConfig contains configuration for snippet storage.
type StoreConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "./snippets.db"
	Path string `yaml:"path"`

	// Multisite enables the network table and shared network snippets.
	// Default: false
	Multisite bool `yaml:"multisite"`

	// Table is the site-level snippet table name.
	// Default: "snippets"
	Table string `yaml:"table"`

	// NetworkTable is the network-level snippet table name.
	// Default: "ms_snippets"
	NetworkTable string `yaml:"network_table"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaintenanceSchedule is a cron expression for WAL checkpoint and
	// optimize runs. Empty disables scheduled maintenance.
	// Default: "0 4 * * *"
	MaintenanceSchedule string `yaml:"maintenance_schedule"`

	// Cache enables the cross-request active snippet cache.
	// Default: true
	Cache bool `yaml:"cache"`
}

// EngineConfig contains configuration for the dispatchers.
type EngineConfig struct {
	// SafeMode disables all snippet evaluation and execution.
	// Default: false
	SafeMode bool `yaml:"safe_mode"`

	// RESTRoute is the snippet edit route. JSON requests under it that end
	// in a numeric id mark that snippet as currently being edited.
	// Default: "/wp-json/code-snippets/v1/snippets"
	RESTRoute string `yaml:"rest_route"`
}

// ExecutionConfig contains configuration for snippet execution.
type ExecutionConfig struct {
	// Enabled is the config-level execute_snippets filter. False vetoes all
	// execution for every request (equivalent to safe mode).
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Timeout bounds a single snippet execution or condition evaluation.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`

	// Blocked lists snippets vetoed by the allow_execute_snippet filter.
	Blocked []BlockedSnippet `yaml:"blocked"`
}

// BlockedSnippet identifies one snippet that must never execute.
type BlockedSnippet struct {
	// ID is the snippet id.
	ID int64 `yaml:"id"`

	// Table is the owning table. Empty means the site table.
	Table string `yaml:"table"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus namespace for all metrics.
	// Default: "snippets"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus subsystem for all metrics.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// ExecutionDurationBuckets are the histogram buckets, in seconds, for
	// snippet execution durations.
	// Default: [0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2]
	ExecutionDurationBuckets []float64 `yaml:"execution_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans cover
// HTTP requests and each lifecycle stage.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "snippets"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
