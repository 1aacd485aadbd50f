package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/server"
	"mercator-hq/snippets/pkg/store"
)

var serveFlags struct {
	listenAddress string
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pages over HTTP",
	Long: `Start the HTTP host. Every request runs the early and conditional
function passes and renders head and footer content snippets.

The config file is watched: toggling engine.safe_mode or the execution
section takes effect on the next request without a restart.

Examples:
  # Start with the default config
  snippets serve

  # Override the listen address
  snippets serve --listen 0.0.0.0:8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := openComponents()
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := c.cfg
	logger := c.logger
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if m, ok := c.store.(store.Maintainer); ok && cfg.Store.MaintenanceSchedule != "" {
		scheduler := store.NewMaintenanceScheduler(m, cfg.Store.MaintenanceSchedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Warn("failed to start maintenance scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			if next := scheduler.NextRun(); next != nil {
				logger.Debug("store maintenance scheduled", "next_run", next)
			}
		}
	}

	if !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 0, logger)
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
			go func() {
				err := watcher.Watch(ctx, func(reloaded *config.Config) {
					logger.Info("configuration reloaded",
						"safe_mode", reloaded.Engine.SafeMode,
						"execution_enabled", reloaded.Execution.Enabled,
					)
				})
				if err != nil {
					logger.Warn("config watcher stopped", "error", err)
				}
			}()
		}
	}

	opts := []server.Option{
		server.WithSnippetSource(c.store),
		server.WithLogger(logger),
		server.WithTracer(c.tracer),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetricsHandler(cfg.Telemetry.Metrics.Path, c.collector.Handler()))
	}

	srv := server.NewServer(&cfg.Server, c.engine(), opts...)

	fmt.Fprintf(cmd.OutOrStdout(), "Snippets %s listening on %s\n", Version, cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
