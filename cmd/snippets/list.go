package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/snippets/pkg/cli"
	"mercator-hq/snippets/pkg/snippet"
)

var listFlags struct {
	scopes []string
	output string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active snippets",
	Long: `List the snippets the engine would load, network rows first, in
priority order. Shared network snippets are included.

Examples:
  snippets list
  snippets list --scope global --scope single-use --output json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringSliceVarP(&listFlags.scopes, "scope", "s", nil, "scopes to list (default: all)")
	listCmd.Flags().StringVarP(&listFlags.output, "output", "o", "text", "output format: text, json, yaml")
}

// snippetTable renders rows as aligned text.
type snippetTable []snippet.Snippet

func (t snippetTable) String() string {
	if len(t) == 0 {
		return "no active snippets"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-12s %-6s %-15s %-8s %-9s %s\n", "TABLE", "ID", "SCOPE", "PRIORITY", "CONDITION", "NAME")
	for _, s := range t {
		condition := "-"
		if s.HasCondition() {
			condition = fmt.Sprint(s.ConditionID)
		}
		fmt.Fprintf(&sb, "%-12s %-6d %-15s %-8d %-9s %s\n", s.Table, s.ID, s.Scope, s.Priority, condition, s.Name)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(listFlags.output)
	if err != nil {
		return err
	}

	scopes := snippet.AllScopes
	if len(listFlags.scopes) > 0 {
		scopes = make([]snippet.Scope, 0, len(listFlags.scopes))
		for _, s := range listFlags.scopes {
			scope, err := snippet.ParseScope(s)
			if err != nil {
				return cli.NewConfigError("scope", err.Error())
			}
			scopes = append(scopes, scope)
		}
	}

	c, err := openComponents()
	if err != nil {
		return err
	}
	defer c.Close()

	rows, err := c.store.FetchActive(cmd.Context(), scopes)
	if err != nil {
		return cli.NewCommandError("list", err)
	}

	if format == cli.FormatText {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), snippetTable(rows))
	}
	if rows == nil {
		rows = []snippet.Snippet{}
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), rows)
}
