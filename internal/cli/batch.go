package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvasilyev/factfuse/internal/pipeline"
	"github.com/pvasilyev/factfuse/internal/store"
	"github.com/pvasilyev/factfuse/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	ingestRate   float64
	ingestBurst  int
	// noStore, noFooter and weightsFile are defined in attribute.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Attribute every fact file in a directory in parallel",
	Long: `Batch processes a directory of fact envelopes concurrently:
- Discover *.json fact files in the directory
- Attribute documents in parallel with a configurable worker count
- Throttle per source system to protect upstream extraction quotas
- Persist every result into the shared store for cross-document merging
- Write an individual report per document

Example:
  factfuse batch ./inbox
  factfuse batch ./inbox --concurrency 10 --output-dir ./reports
  factfuse batch ./inbox --rate 5 --burst 2`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factfuse-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&ingestRate, "rate", 0, "documents/second per source system (0 disables throttling)")
	batchCmd.Flags().IntVar(&ingestBurst, "burst", 5, "throttle burst size")

	// Shared flags
	batchCmd.Flags().BoolVar(&noStore, "no-store", false, "render only, skip persistence")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().StringVar(&weightsFile, "weights", "", "YAML weight overrides for evidence source contexts")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Factfuse Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Build configuration
	cfg := loadConfig()
	cfg.Concurrency.Workers = concurrency
	cfg.Output.IncludeFooter = !noFooter
	if weightsFile != "" {
		cfg.Policy.WeightsFile = weightsFile
	}
	if cmd.Flags().Changed("rate") {
		cfg.Concurrency.IngestRate = ingestRate
		cfg.Concurrency.IngestBurst = ingestBurst
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// One shared store: merging needs every document in the same place.
	var repo store.Repository
	if !noStore {
		r, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		repo = r
		defer func() { _ = r.Close() }()
	}

	p, err := pipeline.NewPipeline(cfg, newLogger(), repo)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, concurrency, cfg.Concurrency.IngestRate, cfg.Concurrency.IngestBurst)

	fmt.Fprintf(os.Stderr, "⚙️  Discovering fact files...\n")
	results, err := processor.ProcessDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Processed %d files with %d workers\n", len(results), concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	successCount := 0
	failureCount := 0
	warningCount := 0

	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Err)
			continue
		}

		successCount++
		warningCount += len(result.Report.Warnings)

		slug := sanitizeFilename(result.Report.Meta.DocumentID)
		jsonPath := filepath.Join(outputDir, slug+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d facts, %d borrowers, %d warnings)\n",
			result.Report.Meta.DocumentID, result.Report.FactCount,
			len(result.Report.Borrowers), len(result.Report.Warnings))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Warnings:  %d\n", warningCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename sanitizes a document ID for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}
	return s
}
