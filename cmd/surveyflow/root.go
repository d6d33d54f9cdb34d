package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surveyflow",
	Short: "surveyflow runs conditional surveys defined in YAML",
	Long: `surveyflow walks a graph of forms, routing on answers, and matches the answers'
tags against a resource catalog when the survey completes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("catalog", "", "Resource catalog file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("env-file", "", "Dotenv file with SURVEYFLOW_* settings (default .env when present)")
}
