package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
)

// Processor turns one fact file into an attribution report.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*model.AttributionReport, error)
}

// DocumentJob wraps the processing of a single fact file.
type DocumentJob struct {
	Path         string
	SourceSystem string
	Processor    Processor
	Limiter      *Limiter
}

// DocumentResult carries the outcome of one DocumentJob.
type DocumentResult struct {
	Path   string
	Report *model.AttributionReport
	Err    error
}

// GetError implements the Result interface.
func (r *DocumentResult) GetError() error {
	return r.Err
}

// Execute implements the Job interface.
func (j *DocumentJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.SourceSystem); err != nil {
			return &DocumentResult{Path: j.Path, Err: err}
		}
	}

	report, err := j.Processor.ProcessFile(ctx, j.Path)
	return &DocumentResult{Path: j.Path, Report: report, Err: err}
}

// BatchProcessor runs a processor over many fact files concurrently.
type BatchProcessor struct {
	processor   Processor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor. A rate of zero disables
// per-source throttling.
func NewBatchProcessor(processor Processor, concurrency int, ratePerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if ratePerSecond > 0 {
		limiter = NewLimiter(ratePerSecond, burst)
	}

	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessFiles attributes every file in the list and returns one result
// per file. Individual failures do not abort the batch.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*DocumentResult {
	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&DocumentJob{
			Path:         path,
			SourceSystem: sourceSystemFor(path),
			Processor:    b.processor,
			Limiter:      b.limiter,
		})
	}

	raw := pool.Wait()

	results := make([]*DocumentResult, 0, len(raw))
	for _, r := range raw {
		if dr, ok := r.(*DocumentResult); ok {
			results = append(results, dr)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results
}

// ProcessDir attributes every fact file found directly in dir.
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*DocumentResult, error) {
	paths, err := ListFactFiles(dir)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ListFactFiles returns the JSON fact files in dir, sorted by name.
func ListFactFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// sourceSystemFor derives a throttling key from the file layout. Files
// grouped under a subdirectory share that directory as their source.
func sourceSystemFor(path string) string {
	parent := filepath.Base(filepath.Dir(path))
	if parent == "." || parent == string(filepath.Separator) {
		return "default"
	}
	return parent
}
