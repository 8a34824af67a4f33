package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvasilyev/factfuse/internal/merge"
	"github.com/pvasilyev/factfuse/internal/pipeline"
	"github.com/pvasilyev/factfuse/internal/store"
)

var (
	queryApp     bool
	queryList    bool
	queryJSON    string
	queryTimeout time.Duration
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [name-or-ref]",
	Short: "Read a merged borrower or application record",
	Long: `Query merges every stored extraction for one borrower or application
across all processed documents and shows each value with its confidence:

  HIGH    supporting evidence outweighs every competing value
  MEDIUM  supporting and competing evidence are balanced
  LOW     competing values carry more weight

Example:
  factfuse query "John A Smith"
  factfuse query app:1000012345 --app
  factfuse query --list
  factfuse query "John A Smith" --json merged.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolVar(&queryApp, "app", false, "treat the argument as an application ref")
	queryCmd.Flags().BoolVar(&queryList, "list", false, "list stored borrower and application refs")
	queryCmd.Flags().StringVar(&queryJSON, "json", "", "also write the merged record as JSON")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 30*time.Second, "query timeout")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	cfg := loadConfig()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = repo.Close() }()

	pol, err := pipeline.BuildPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	svc := store.NewQueryService(repo, merge.NewEngine(pol), buildCache(cfg), cfg.Cache.TTL)

	if queryList {
		return listRefs(ctx, svc)
	}
	if len(args) == 0 {
		return fmt.Errorf("a borrower name or application ref is required (or --list)")
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if queryApp {
		merged, err := svc.Application(ctx, args[0])
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		if merged == nil {
			return fmt.Errorf("no stored extractions for application %q", args[0])
		}
		renderer.RenderApplicationTo(os.Stdout, merged)
		if queryJSON != "" {
			return renderer.RenderJSON(merged, queryJSON)
		}
		return nil
	}

	merged, err := svc.Borrower(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if merged == nil {
		return fmt.Errorf("no stored extractions for borrower %q", args[0])
	}
	renderer.RenderBorrowerTo(os.Stdout, merged)
	if queryJSON != "" {
		return renderer.RenderJSON(merged, queryJSON)
	}
	return nil
}

func listRefs(ctx context.Context, svc *store.QueryService) error {
	borrowers, applications, err := svc.Refs(ctx)
	if err != nil {
		return fmt.Errorf("list refs: %w", err)
	}

	fmt.Printf("Borrowers (%d):\n", len(borrowers))
	for _, ref := range borrowers {
		fmt.Printf("  %s\n", ref)
	}
	fmt.Printf("\nApplications (%d):\n", len(applications))
	for _, ref := range applications {
		fmt.Printf("  %s\n", ref)
	}
	return nil
}
