package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/gateway"
)

var queryFlags struct {
	requestFlags
	file string
}

var queryCmd = &cobra.Command{
	Use:   "query [prompt...]",
	Short: "Send a prompt through the gateway",
	Long: `Send a prompt through the full gateway pipeline and print the result.

The prompt is the joined arguments, or stdin when the only argument is "-".
With --file, every non-blank line is a separate prompt and the batch runs
concurrently.

Examples:
  # Single prompt
  llmgateway query "What is the capital of France?"

  # Force a tier and ask for JSON
  llmgateway query --tier COMPLEX --format json "Extract the parties from: ..."

  # Prompt from stdin
  cat report.txt | llmgateway query --feature summaries -

  # Batch, one prompt per line, CSV results
  llmgateway query --file prompts.txt --output csv`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryFlags.bind(queryCmd)
	queryCmd.Flags().StringVarP(&queryFlags.file, "file", "f", "", "file with one prompt per line (\"-\" for stdin)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	queryFlags.temperatureSet = cmd.Flags().Changed("temperature")
	format, err := cli.ParseFormat(queryFlags.output)
	if err != nil {
		return err
	}

	var prompts []string
	if queryFlags.file != "" {
		if len(args) > 0 {
			return cli.NewConfigError("file", "cannot combine --file with a prompt argument")
		}
		if prompts, err = readPromptFile(queryFlags.file, cmd.InOrStdin()); err != nil {
			return cli.NewCommandError("query", err)
		}
	} else {
		prompt, err := promptFromArgs(args, cmd.InOrStdin())
		if err != nil {
			return cli.NewCommandError("query", err)
		}
		prompts = []string{prompt}
	}

	reqs := make([]gateway.Request, 0, len(prompts))
	for _, p := range prompts {
		req, err := queryFlags.request(p)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cli.SetupSignalHandler()
	a, err := newApp(ctx, cfg, appOptions{ledger: true})
	if err != nil {
		return cli.NewCommandError("query", err)
	}
	defer a.Close(context.WithoutCancel(ctx))

	var responses []gateway.Response
	if len(reqs) == 1 && queryFlags.file == "" {
		responses = []gateway.Response{a.gateway.Submit(ctx, reqs[0])}
	} else {
		responses = a.gateway.SubmitBatch(ctx, reqs)
	}

	if err := printResponses(cmd.OutOrStdout(), cmd.ErrOrStderr(), format, responses, queryFlags.file == ""); err != nil {
		return err
	}
	return failures(responses)
}

func readPromptFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readPrompts(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPrompts(f)
}

// printResponses writes responses to out. A single text response prints
// the text alone with a summary on errOut.
func printResponses(out, errOut io.Writer, format cli.OutputFormat, responses []gateway.Response, single bool) error {
	if single && len(responses) == 1 {
		switch format {
		case cli.FormatJSON:
			return cli.NewFormatter(format).FormatTo(out, responses[0])
		case cli.FormatText:
			r := responses[0]
			if r.OK() {
				fmt.Fprintln(out, r.Text)
			}
			fmt.Fprintln(errOut, summary(r))
			return nil
		}
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, responses)
	}
	table := responseTable{responses: responses}
	if format == cli.FormatText {
		table.width = 60
	}
	return cli.NewFormatter(format).FormatTo(out, table)
}

// failures returns an error when any response failed.
func failures(responses []gateway.Response) error {
	var errs []error
	for i, r := range responses {
		if r.OK() {
			continue
		}
		if len(responses) == 1 {
			errs = append(errs, fmt.Errorf("%s: %s", r.ErrorKind, r.Error))
		} else {
			errs = append(errs, fmt.Errorf("request %d: %s: %s", i+1, r.ErrorKind, r.Error))
		}
	}
	return errors.Join(errs...)
}
