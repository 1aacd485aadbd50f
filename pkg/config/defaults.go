package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultAdminPrefix     = "/wp-admin"
	DefaultRESTRoot        = "/wp-json"

	// Store defaults
	DefaultStoreDriver         = "sqlite"
	DefaultStorePath           = "./snippets.db"
	DefaultTable               = "snippets"
	DefaultNetworkTable        = "ms_snippets"
	DefaultBusyTimeout         = 5 * time.Second
	DefaultMaintenanceSchedule = "0 4 * * *"

	// Engine defaults
	DefaultRESTRoute = "/wp-json/code-snippets/v1/snippets"

	// Execution defaults
	DefaultExecutionTimeout = 2 * time.Second

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "snippets"
	DefaultMetricsSubsystem = "engine"
	DefaultTracingSampler   = "ratio"
	DefaultSampleRatio      = 0.1
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultServiceName      = "snippets"
	DefaultTracingTimeout   = 10 * time.Second
)

// DefaultExecutionDurationBuckets are histogram buckets for snippet
// execution time. Snippets are expected to run in well under a second.
var DefaultExecutionDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2}

// NewDefaultConfig returns a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	cfg := rawDefaults()
	ApplyDefaults(cfg)
	return cfg
}

// rawDefaults returns a Config with only the default-true booleans set.
// YAML is decoded on top of it so that omitted keys keep their default.
func rawDefaults() *Config {
	return &Config{
		Store: StoreConfig{Cache: true},
		Execution: ExecutionConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true},
			Tracing: TracingConfig{
				Insecure:    true,
				SampleRatio: DefaultSampleRatio,
			},
		},
	}
}

// ApplyDefaults fills zero-valued fields with their defaults.
// Boolean fields whose default is true are handled by rawDefaults during
// loading, since a zero bool cannot be told apart from an explicit false.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyEngineDefaults(&cfg.Engine)
	applyExecutionDefaults(&cfg.Execution, cfg.Store.Table)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.AdminPrefix == "" {
		cfg.AdminPrefix = DefaultAdminPrefix
	}
	if cfg.RESTRoot == "" {
		cfg.RESTRoot = DefaultRESTRoot
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Driver == "" {
		cfg.Driver = DefaultStoreDriver
	}
	if cfg.Path == "" {
		cfg.Path = DefaultStorePath
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.NetworkTable == "" {
		cfg.NetworkTable = DefaultNetworkTable
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.RESTRoute == "" {
		cfg.RESTRoute = DefaultRESTRoute
	}
}

func applyExecutionDefaults(cfg *ExecutionConfig, siteTable string) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultExecutionTimeout
	}
	for i := range cfg.Blocked {
		if cfg.Blocked[i].Table == "" {
			cfg.Blocked[i].Table = siteTable
		}
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.ExecutionDurationBuckets) == 0 {
		cfg.Metrics.ExecutionDurationBuckets = append([]float64(nil), DefaultExecutionDurationBuckets...)
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}
