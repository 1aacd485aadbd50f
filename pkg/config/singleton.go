package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the singleton configuration instance.
	globalConfig *Config

	// globalPath is the file the singleton was loaded from; ReloadConfig
	// falls back to it when called with an empty path.
	globalPath string

	// configMutex protects globalConfig and globalPath.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from the specified path with environment
// variable overrides and stores it as the global singleton configuration.
// Subsequent calls are ignored.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the global configuration instance, or nil if Initialize
// has not been called successfully.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the global configuration instance. Intended for tests
// and for commands that build a configuration without a file.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig reloads the configuration from path (or from the path given
// to Initialize when path is empty). The global instance is replaced only
// if loading and validation succeed.
func ReloadConfig(path string) (*Config, error) {
	if path == "" {
		configMutex.RLock()
		path = globalPath
		configMutex.RUnlock()
	}
	if path == "" {
		return nil, fmt.Errorf("failed to reload configuration: no path")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	globalPath = path
	configMutex.Unlock()

	return cfg, nil
}

// SafeModeActive reports whether the current global configuration has safe
// mode switched on. A missing configuration is not safe mode.
func SafeModeActive() bool {
	cfg := GetConfig()
	if cfg == nil {
		return false
	}
	return cfg.Engine.SafeMode
}
