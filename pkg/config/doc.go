// Package config provides configuration management for the snippet engine.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SNIPPETS_SECTION_FIELD.
// For example:
//
//   - SNIPPETS_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - SNIPPETS_STORE_PATH overrides store.path
//   - SNIPPETS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// SNIPPETS_SAFE_MODE is the global kill switch. When truthy no snippet is
// evaluated or executed, whatever the file says.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// The Watcher reloads the singleton when the file changes on disk, which is
// how safe mode is toggled on a running server.
//
// # Example Configuration
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	store:
//	  driver: "sqlite"
//	  path: "./snippets.db"
//	  multisite: true
//
//	engine:
//	  safe_mode: false
//
//	execution:
//	  timeout: "2s"
//	  blocked:
//	    - id: 12
//	      table: "snippets"
package config
