package main

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/evaluation"
	"mercator-hq/snippets/pkg/server"
)

var runFlags struct {
	method   string
	path     string
	admin    bool
	json     bool
	safeMode bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Render one simulated request to stdout",
	Long: `Run the full lifecycle for a single simulated request and print the
rendered page.

Admin and JSON detection follow the server configuration; --admin and
--json force them on.

Examples:
  # Front-end page
  snippets run --path /about

  # Admin page
  snippets run --path /wp-admin/index.php

  # Editor request for snippet 12 of the network table
  snippets run --json --path "/wp-json/code-snippets/v1/snippets/12?network=true"`,
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.method, "method", "X", http.MethodGet, "request method")
	runCmd.Flags().StringVarP(&runFlags.path, "path", "p", "/", "request path and query")
	runCmd.Flags().BoolVar(&runFlags.admin, "admin", false, "treat the request as administrative")
	runCmd.Flags().BoolVar(&runFlags.json, "json", false, "treat the request as a JSON API request")
	runCmd.Flags().BoolVar(&runFlags.safeMode, "safe-mode", false, "force safe mode for this run")
}

func runRequest(cmd *cobra.Command, args []string) error {
	c, err := openComponents()
	if err != nil {
		return err
	}
	defer c.Close()

	if runFlags.safeMode {
		c.cfg.Engine.SafeMode = true
		config.SetConfig(c.cfg)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), runFlags.method, runFlags.path, nil)
	if err != nil {
		return cli.NewConfigError("path", err.Error())
	}

	info := evaluation.RequestInfoFromHTTP(req, c.cfg.Server.AdminPrefix, c.cfg.Server.RESTRoot)
	info.IsAdmin = info.IsAdmin || runFlags.admin
	info.IsJSON = info.IsJSON || runFlags.json

	var functionOutput bytes.Buffer
	lc := c.engine().NewLifecycle(info, &functionOutput)

	c.logger.Debug("running request",
		"request_id", lc.RequestID(),
		"method", info.Method,
		"uri", info.URI,
		"admin", info.IsAdmin,
		"json", info.IsJSON,
	)

	var page bytes.Buffer
	if err := server.RenderPage(cmd.Context(), lc, &functionOutput, &page); err != nil {
		return cli.NewCommandError("run", err)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), page.String())
	return err
}
