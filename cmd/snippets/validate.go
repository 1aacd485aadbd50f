package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with environment overrides applied and
report every invalid field.

Examples:
  snippets validate --config /etc/snippets/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		fieldErrs := cli.ConfigErrors(err)
		if len(fieldErrs) == 0 {
			return cli.NewConfigError("", err.Error())
		}
		for _, fe := range fieldErrs {
			fmt.Fprintf(out, "✗ %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("%s: %w", cfgFile, err)
	}

	fmt.Fprintf(out, "✓ Configuration valid (%s)\n", cfgFile)
	if verbose {
		fmt.Fprintf(out, "  store: %s %s (multisite=%t, cache=%t)\n", cfg.Store.Driver, cfg.Store.Path, cfg.Store.Multisite, cfg.Store.Cache)
		fmt.Fprintf(out, "  safe mode: %t\n", cfg.Engine.SafeMode)
		fmt.Fprintf(out, "  listen: %s\n", cfg.Server.ListenAddress)
	}
	return nil
}
