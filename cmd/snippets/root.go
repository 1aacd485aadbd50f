package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/hooks"
	"mercator-hq/snippets/pkg/lifecycle"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
	"mercator-hq/snippets/pkg/telemetry/metrics"
	"mercator-hq/snippets/pkg/telemetry/tracing"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "snippets",
	Short: "Snippets - stored code snippet evaluation engine",
	Long: `Snippets runs stored code snippets over the lifecycle of a page request.

Function snippets run in two passes (early, then conditional), content
snippets are printed into the page head and footer, conditions gate both,
and safe mode switches everything off.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the config file and publishes it as the
// global configuration, which safe mode and the execution filters read on
// every request.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// setupLogger builds the process logger from the telemetry section.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
	if verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// components bundles what every engine-backed command needs.
type components struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	store     store.Admin
}

func openComponents() (*components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	st, err := store.Open(&cfg.Store, collector)
	if err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open snippet store: %w", err)
	}

	logger.Debug("snippet store opened",
		"driver", cfg.Store.Driver,
		"path", cfg.Store.Path,
		"multisite", cfg.Store.Multisite,
		"cache", cfg.Store.Cache,
	)

	return &components{cfg: cfg, logger: logger, collector: collector, tracer: tracer, store: st}, nil
}

// engine wires the store, execution filters, safe mode and metrics.
func (c *components) engine() *lifecycle.Engine {
	return lifecycle.NewEngine(c.store, c.cfg.Execution.Timeout,
		lifecycle.WithFilters(hooks.FromSource(currentExecutionConfig)),
		lifecycle.WithSafeMode(config.SafeModeActive),
		lifecycle.WithRoutePrefix(c.cfg.Engine.RESTRoute),
		lifecycle.WithMetrics(c.collector),
		lifecycle.WithTracer(c.tracer),
		lifecycle.WithLogger(c.logger),
	)
}

// Close flushes pending spans and closes the store.
func (c *components) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Telemetry.Tracing.Timeout)
	defer cancel()
	return errors.Join(c.tracer.Shutdown(ctx), c.store.Close())
}

func currentExecutionConfig() *config.ExecutionConfig {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil
	}
	return &cfg.Execution
}
