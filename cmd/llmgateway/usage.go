package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/ledger"
)

var usageFlags struct {
	since   string
	until   string
	days    int
	feature string
	path    string
	output  string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report daily spend from the usage ledger",
	Long: `Print per-day, per-provider request counts, tokens and cost recorded in
the usage ledger. Days are UTC and both bounds are inclusive.

Examples:
  # Last 7 days
  llmgateway usage --days 7

  # A date range for one feature, as CSV
  llmgateway usage --since 2026-03-01 --until 2026-03-31 --feature summaries -o csv

  # Read a ledger file directly
  llmgateway usage --ledger data/usage.db`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVar(&usageFlags.since, "since", "", "first day (YYYY-MM-DD)")
	usageCmd.Flags().StringVar(&usageFlags.until, "until", "", "last day (YYYY-MM-DD)")
	usageCmd.Flags().IntVar(&usageFlags.days, "days", 0, "report the last N days including today (overrides --since)")
	usageCmd.Flags().StringVar(&usageFlags.feature, "feature", "", "only this feature")
	usageCmd.Flags().StringVar(&usageFlags.path, "ledger", "", "ledger database path (default: ledger.path from config)")
	usageCmd.Flags().StringVarP(&usageFlags.output, "output", "o", "text", "output format: text, json, csv")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usageFlags.output)
	if err != nil {
		return err
	}
	filter, err := usageFilter(usageFlags.since, usageFlags.until, usageFlags.days, usageFlags.feature, time.Now())
	if err != nil {
		return err
	}

	path := usageFlags.path
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Ledger.Enabled {
			return cli.NewConfigError("ledger.enabled", "the usage ledger is disabled; enable it or pass --ledger")
		}
		path = cfg.Ledger.Path
	}

	if _, err := os.Stat(path); err != nil {
		return cli.NewCommandError("usage", fmt.Errorf("no usage ledger at %q: %w", path, err))
	}
	store, err := ledger.Open(ledger.Config{Path: path})
	if err != nil {
		return cli.NewCommandError("usage", err)
	}
	defer store.Close()

	days, err := store.Daily(cmd.Context(), filter)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	if format == cli.FormatJSON {
		if days == nil {
			days = []ledger.DailyUsage{}
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), days)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), usageTable{days: days, total: format == cli.FormatText})
}

// usageFilter builds a ledger filter from the flag values.
func usageFilter(since, until string, days int, feature string, now time.Time) (ledger.Filter, error) {
	f := ledger.Filter{Feature: feature}
	var err error
	if since != "" {
		if f.Since, err = time.Parse(time.DateOnly, since); err != nil {
			return f, cli.NewConfigError("since", fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", since))
		}
	}
	if until != "" {
		if f.Until, err = time.Parse(time.DateOnly, until); err != nil {
			return f, cli.NewConfigError("until", fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", until))
		}
	}
	if days < 0 {
		return f, cli.NewConfigError("days", "must not be negative")
	}
	if days > 0 {
		f.Since = now.UTC().AddDate(0, 0, 1-days)
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return f, cli.NewConfigError("until", "must not be before --since")
	}
	return f, nil
}

// usageTable renders daily rollups. With total set a final row sums every
// column.
type usageTable struct {
	days  []ledger.DailyUsage
	total bool
}

func (t usageTable) Headers() []string {
	return []string{"day", "provider", "requests", "cache_hits", "errors", "tokens_in", "tokens_out", "cost_usd"}
}

func (t usageTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.days)+1)
	var sum ledger.DailyUsage
	for _, d := range t.days {
		rows = append(rows, usageRow(d))
		sum.Requests += d.Requests
		sum.CacheHits += d.CacheHits
		sum.Errors += d.Errors
		sum.TokensIn += d.TokensIn
		sum.TokensOut += d.TokensOut
		sum.CostUSD += d.CostUSD
	}
	if t.total {
		sum.Day = "total"
		rows = append(rows, usageRow(sum))
	}
	return rows
}

func usageRow(d ledger.DailyUsage) []string {
	return []string{
		d.Day,
		d.Provider,
		strconv.FormatInt(d.Requests, 10),
		strconv.FormatInt(d.CacheHits, 10),
		strconv.FormatInt(d.Errors, 10),
		strconv.FormatInt(d.TokensIn, 10),
		strconv.FormatInt(d.TokensOut, 10),
		strconv.FormatFloat(d.CostUSD, 'f', 6, 64),
	}
}
