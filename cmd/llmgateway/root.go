package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "llmgateway",
	Short: "Unified LLM request gateway",
	Long: `llmgateway sends every LLM call through one pipeline that:
  - detects prompt complexity and picks a provider by weighted routing
  - serves repeated prompts from a response cache
  - retries and fails over to the next provider on errors
  - tracks tokens and spend per provider and feature, with budget alerts

Without --config the built-in defaults are used. LLMGW_* environment
variables override both.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
