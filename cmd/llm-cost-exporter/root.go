package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "llm-cost-exporter",
	Short: "Prometheus exporter for LLM usage and cost",
	Long: `llm-cost-exporter polls usage and billing data from LLM providers
(OpenAI, Anthropic, AWS Bedrock) on a fixed interval and republishes the
aggregated snapshot as Prometheus metrics.

Configuration is read from the environment; a .env file in the working
directory is honored. See the README for the variable reference.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
