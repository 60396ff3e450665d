/*
Package cli provides command-line helpers shared by the llmgateway
subcommands.

Output Formatting:

Commands print results as text, JSON or CSV. Tabular results implement
Table so the text and CSV formatters can lay them out:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, usageTable); err != nil {
		return err
	}

Values that are not a Table are printed with %v (text) or encoded as JSON.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
