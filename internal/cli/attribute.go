package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvasilyev/factfuse/internal/pipeline"
	"github.com/pvasilyev/factfuse/internal/store"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	noStore     bool
	noFooter    bool
	weightsFile string
	llmProvider string
	llmModel    string
)

// attributeCmd represents the attribute command
var attributeCmd = &cobra.Command{
	Use:   "attribute <facts.json>",
	Short: "Attribute one document's facts to borrowers and applications",
	Long: `Attribute processes a single fact envelope:
- Decode the document's extracted facts
- Resolve each fact's owner from nearby names and source trust weights
- Exclude employer-side address blocks from borrower addresses
- Assemble per-borrower and per-application records with full evidence
- Persist the result for cross-document merging

Example:
  factfuse attribute smith_w2.json
  factfuse attribute smith_w2.json --json report.json --md report.md
  factfuse attribute smith_w2.json --weights custom-weights.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAttribute,
}

func init() {
	rootCmd.AddCommand(attributeCmd)

	// Output flags
	attributeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	attributeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	attributeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Processing flags
	attributeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall processing timeout")
	attributeCmd.Flags().BoolVar(&noStore, "no-store", false, "render only, skip persistence")
	attributeCmd.Flags().StringVar(&weightsFile, "weights", "", "YAML weight overrides for evidence source contexts")

	// LLM flags (raw text documents only)
	attributeCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for raw documents (openai, anthropic, ollama)")
	attributeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runAttribute(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	cfg.Output.IncludeFooter = !noFooter
	if weightsFile != "" {
		cfg.Policy.WeightsFile = weightsFile
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		if llmModel != "" {
			cfg.LLM.Model = llmModel
		}
		applyLLMKeys(cfg)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Attributing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Store: %s\n", storeLabel(cfg, noStore))
		fmt.Fprintln(os.Stderr)
	}

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

	report, err := p.ProcessFile(ctx, path)
	if err != nil {
		return fmt.Errorf("attribute failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Attributed %d facts\n", report.FactCount)
		fmt.Fprintf(os.Stderr, "✓ %d borrower(s), %d application(s), %d warning(s)\n",
			len(report.Borrowers), len(report.Applications), len(report.Warnings))
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
