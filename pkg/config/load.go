package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	return ParseConfig(data, path)
}

// ParseConfig decodes YAML configuration bytes, applies defaults and
// validates the result. name is only used in error messages.
func ParseConfig(data []byte, name string) (*Config, error) {
	cfg := rawDefaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", name, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SNIPPETS_SECTION_FIELD and always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("SNIPPETS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SNIPPETS_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("SNIPPETS_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("SNIPPETS_SERVER_ADMIN_PREFIX"); val != "" {
		cfg.Server.AdminPrefix = val
	}

	// Store overrides
	if val := os.Getenv("SNIPPETS_STORE_DRIVER"); val != "" {
		cfg.Store.Driver = val
	}
	if val := os.Getenv("SNIPPETS_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("SNIPPETS_STORE_MULTISITE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.Multisite = b
		}
	}
	if val := os.Getenv("SNIPPETS_STORE_MAINTENANCE_SCHEDULE"); val != "" {
		cfg.Store.MaintenanceSchedule = val
	}
	if val := os.Getenv("SNIPPETS_STORE_CACHE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.Cache = b
		}
	}

	// Engine overrides. SNIPPETS_SAFE_MODE is the documented kill switch;
	// the long form is accepted for symmetry with the other sections.
	for _, name := range []string{"SNIPPETS_ENGINE_SAFE_MODE", "SNIPPETS_SAFE_MODE"} {
		if val := os.Getenv(name); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Engine.SafeMode = b
			}
		}
	}
	if val := os.Getenv("SNIPPETS_ENGINE_REST_ROUTE"); val != "" {
		cfg.Engine.RESTRoute = val
	}

	// Execution overrides
	if val := os.Getenv("SNIPPETS_EXECUTION_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Execution.Enabled = b
		}
	}
	if val := os.Getenv("SNIPPETS_EXECUTION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Execution.Timeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SNIPPETS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SNIPPETS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SNIPPETS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("SNIPPETS_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("SNIPPETS_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("SNIPPETS_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}
