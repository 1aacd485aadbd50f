// Snippets evaluates stored code snippets over the lifecycle of a page
// request.
//
// Usage:
//
//	# Load snippets from a seed file
//	snippets seed --config config.yaml snippets.yaml
//
//	# Serve pages over HTTP
//	snippets serve --config config.yaml
//
//	# Render a single request to stdout
//	snippets run --path /wp-admin/index.php
//
//	# List active snippets
//	snippets list --output yaml
//
//	# Validate the configuration file
//	snippets validate
package main

import (
	"context"
	"fmt"
	"os"

	"mercator-hq/snippets/pkg/cli"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
