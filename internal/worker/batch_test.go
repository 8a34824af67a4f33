package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pvasilyev/factfuse/internal/model"
)

type mockProcessor struct {
	failOn map[string]bool
}

func (m *mockProcessor) ProcessFile(ctx context.Context, path string) (*model.AttributionReport, error) {
	if m.failOn[filepath.Base(path)] {
		return nil, errors.New("processing failed")
	}
	return &model.AttributionReport{
		Meta: model.DocumentMeta{DocumentID: filepath.Base(path)},
	}, nil
}

func writeFactFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(`{"meta":{"document_id":"d1"},"facts":[]}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestBatchProcessor_ProcessFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFactFile(t, dir, "a.json"),
		writeFactFile(t, dir, "b.json"),
		writeFactFile(t, dir, "c.json"),
	}

	bp := NewBatchProcessor(&mockProcessor{}, 2, 0, 0)
	results := bp.ProcessFiles(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.GetError() != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if r.Report == nil {
			t.Errorf("result %d: missing report", i)
		}
	}
	// Results come back sorted by path regardless of completion order.
	for i := 1; i < len(results); i++ {
		if results[i-1].Path > results[i].Path {
			t.Errorf("results not sorted: %s before %s", results[i-1].Path, results[i].Path)
		}
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFactFile(t, dir, "good.json"),
		writeFactFile(t, dir, "bad.json"),
	}

	bp := NewBatchProcessor(&mockProcessor{failOn: map[string]bool{"bad.json": true}}, 2, 0, 0)
	results := bp.ProcessFiles(context.Background(), paths)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var failed, succeeded int
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Errorf("expected 1 failure and 1 success, got %d/%d", failed, succeeded)
	}
}

func TestListFactFiles(t *testing.T) {
	dir := t.TempDir()
	writeFactFile(t, dir, "b.json")
	writeFactFile(t, dir, "a.json")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListFactFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 fact files, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "a.json" || filepath.Base(paths[1]) != "b.json" {
		t.Errorf("expected sorted json files, got %v", paths)
	}
}

func TestSourceSystemFor(t *testing.T) {
	if got := sourceSystemFor(filepath.Join("inbox", "los", "a.json")); got != "los" {
		t.Errorf("expected los, got %s", got)
	}
	if got := sourceSystemFor("a.json"); got != "default" {
		t.Errorf("expected default, got %s", got)
	}
}
