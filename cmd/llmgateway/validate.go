package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/config"
	"tickerwire/llmgateway/pkg/routing"
)

const redacted = "[REDACTED]"

var validateFlags struct {
	print bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration (file, defaults and LLMGW_* overrides), validate
it and summarize the providers and routing tables.

Examples:
  llmgateway validate --config llmgateway.yaml

  # Print the effective configuration with secrets redacted
  llmgateway validate --config llmgateway.yaml --print`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateFlags.print, "print", false, "print the effective configuration as YAML")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if validateFlags.print {
		data, err := yaml.Marshal(redactConfig(cfg))
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		_, err = out.Write(data)
		return err
	}

	tables, err := cfg.RoutingTables()
	if err != nil {
		return cli.NewConfigError("routing", err.Error())
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "  providers: %v\n", names)
	for _, tier := range tables.Tiers() {
		fmt.Fprintf(out, "  %-8s %s\n", tier, formatWeights(tables.Distribution[tier]))
	}
	fmt.Fprintf(out, "  cache: enabled=%t backend=%s\n", cfg.Cache.Enabled, cfg.Cache.Backend)
	fmt.Fprintf(out, "  ledger: enabled=%t\n", cfg.Ledger.Enabled)
	return nil
}

func formatWeights(ws []routing.Weighted) string {
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		parts = append(parts, fmt.Sprintf("%s=%.2f", w.Provider, w.Probability))
	}
	return strings.Join(parts, " ")
}

// redactConfig returns a copy of cfg with literal secrets masked.
func redactConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for name, p := range cfg.Providers {
		if p.APIKey != "" {
			p.APIKey = redacted
		}
		c.Providers[name] = p
	}
	if c.Cache.Redis.Password != "" {
		c.Cache.Redis.Password = redacted
	}
	return &c
}
