package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/gateway"
)

var estimateFlags requestFlags

var estimateCmd = &cobra.Command{
	Use:   "estimate [prompt...]",
	Short: "Dry-run routing and cost for a prompt",
	Long: `Show the tier, provider and model a prompt would be routed to and its
estimated cost. No provider is called and nothing is cached or recorded.

Examples:
  llmgateway estimate "Explain the tradeoffs of this design"
  llmgateway estimate --tier CRITICAL --max-tokens 2000 - < contract.txt`,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateFlags.bind(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	estimateFlags.temperatureSet = cmd.Flags().Changed("temperature")
	format, err := cli.ParseFormat(estimateFlags.output)
	if err != nil {
		return err
	}
	prompt, err := promptFromArgs(args, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("estimate", err)
	}
	req, err := estimateFlags.request(prompt)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return cli.NewCommandError("estimate", err)
	}
	defer a.Close(context.WithoutCancel(ctx))

	est, err := a.gateway.Estimate(req)
	if err != nil {
		return cli.NewCommandError("estimate", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), est)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), estimateTable{est})
}

type estimateTable struct {
	gateway.Estimate
}

func (t estimateTable) Headers() []string {
	return []string{"tier", "provider", "model", "tokens_in", "tokens_out", "cost_usd"}
}

func (t estimateTable) Rows() [][]string {
	return [][]string{{
		t.Tier,
		t.Provider,
		t.Model,
		strconv.Itoa(t.TokensIn),
		strconv.Itoa(t.TokensOut),
		strconv.FormatFloat(t.CostUSD, 'f', 6, 64),
	}}
}
