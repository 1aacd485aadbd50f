package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load snippets from a YAML seed file",
	Long: `Insert the snippets of a YAML seed file into the configured store and,
when the file has a shared_network list, replace the shared network ids.

Example seed file:

  snippets:
    - id: 1
      scope: global
      code: 'x = 1'
      active: true
    - id: 2
      scope: head-content
      code: '<meta name="robots" content="noindex">'
      active: true
  shared_network: [1]`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := store.LoadSeedFile(args[0])
	if err != nil {
		return cli.NewCommandError("seed", err)
	}

	c, err := openComponents()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := seed.Apply(cmd.Context(), c.store)
	if err != nil {
		return cli.NewCommandError("seed", err)
	}

	c.logger.Info("seed applied", "file", args[0], "inserted", n)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Inserted %d snippets\n", n)
	return nil
}
