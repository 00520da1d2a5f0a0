package cmd

import (
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	// Global flags. Values read from the --config file are in turn
	// overridden by environment variables in config.Load.
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "docingest",
	Short: "Extract borrower and income data from loan documents",
	Long: `docingest runs the loan-document extraction pipeline: OCR routing,
complexity classification, LLM-based field extraction, and per-borrower
persistence.

Examples:
  # Start the HTTP API server
  docingest serve

  # Run the task queue worker
  docingest worker

  # Process a single local file through the pipeline, synchronously
  docingest process loan.pdf --method docling --ocr auto`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (optional; env vars always override)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
}
