/*
Package cli provides helpers shared by the snippets command.

Output Formatting:

Commands print results as text, JSON or YAML:

	formatter := cli.NewFormatter(cli.FormatYAML)
	if err := formatter.FormatTo(os.Stdout, rows); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry the failing field or command, and
ExitCode maps them to process exit codes.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
