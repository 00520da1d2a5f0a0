package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/docingest/internal/model"
)

var (
	processMethod string
	processOCR    string
	processTimeout time.Duration
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Upload and process a single local file through the pipeline",
	Long: `Runs a single file through Upload and, when no task queue URL is
configured, through Process synchronously (InlineQueue), printing the
resulting Document as JSON. With a task queue URL set, the file is only
enqueued and the printed Document is the one read back right after that.
Useful for local testing without standing up the HTTP server or a task
queue broker.

Examples:
  docingest process loan.pdf
  docingest process loan.pdf --method langextract --ocr force`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processMethod, "method", "auto", "extraction method: docling, langextract, or auto")
	processCmd.Flags().StringVar(&processOCR, "ocr", "auto", "ocr mode: auto, force, or skip")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 5*time.Minute, "processing timeout")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	method, err := model.ParseExtractionMethod(processMethod)
	if err != nil {
		return err
	}
	ocrMode, err := model.ParseOCRMode(processOCR)
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := a.service.Upload(ctx, path, data, method, ocrMode)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	updated, err := a.service.Documents().Get(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("fetching processed document: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(updated)
}
