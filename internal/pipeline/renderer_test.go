package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pvasilyev/factfuse/internal/model"
)

func sampleReport() *model.AttributionReport {
	return &model.AttributionReport{
		Meta: model.DocumentMeta{
			DocumentID:     "doc-1",
			SourceFilename: "smith_w2.pdf",
			DocumentType:   model.DocumentTypeW2,
		},
		ProcessedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		FactCount:   2,
		Borrowers: []model.BorrowerExtraction{
			{
				BorrowerRef: "john a smith",
				FullName:    "John A Smith",
				Identifiers: []model.AttributedIdentifier{
					{Type: model.IdentifierTypeSSN, Value: "999-40-5000", Evidence: []model.Evidence{{DocumentID: "doc-1"}}},
				},
			},
		},
		Applications: []model.ApplicationExtraction{
			{
				ApplicationRef: "app:1000012345",
				LoanNumber:     "1000012345",
				Parties: []model.Party{
					{BorrowerRef: "john a smith", FullName: "John A Smith", Role: model.PartyRoleBorrower},
				},
			},
		},
		Warnings: []model.Warning{
			{Code: model.WarnMalformedFact, FactIndex: 1, Message: "address fact 1 has no zip"},
		},
	}
}

func TestMaskIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"999-40-5000", "***-**-5000"},
		{"999405000", "***-**-5000"},
		{"5000", "5000"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskIdentifier(tt.input); got != tt.want {
			t.Errorf("MaskIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderMarkdown_MasksIdentifiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	r := NewRenderer(true)

	if err := r.RenderMarkdown(sampleReport(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	md := string(data)

	if strings.Contains(md, "999-40-5000") {
		t.Error("markdown must not carry the raw SSN")
	}
	if !strings.Contains(md, "***-**-5000") {
		t.Error("expected masked SSN in markdown")
	}
	if !strings.Contains(md, "# Attribution Report: doc-1") {
		t.Error("expected report header")
	}
	if !strings.Contains(md, "## Application: 1000012345") {
		t.Error("expected application section")
	}
	if !strings.Contains(md, "malformed_fact") {
		t.Error("expected warnings section")
	}
	if !strings.Contains(md, "*Generated by factfuse*") {
		t.Error("expected footer")
	}
}

func TestRenderMarkdown_NoFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	r := NewRenderer(false)

	if err := r.RenderMarkdown(sampleReport(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Generated by factfuse") {
		t.Error("footer should be omitted")
	}
}

func TestRenderJSON_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := NewRenderer(true)

	if err := r.RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// JSON keeps the raw value: it is the machine-readable record.
	if !strings.Contains(string(data), "999-40-5000") {
		t.Error("JSON output should carry the unmasked identifier")
	}
}

func TestRenderSummaryTo(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(true)

	r.RenderSummaryTo(&buf, sampleReport())
	out := buf.String()

	if !strings.Contains(out, "doc-1") {
		t.Error("expected document id in summary")
	}
	if !strings.Contains(out, "John A Smith") {
		t.Error("expected borrower line")
	}
	if !strings.Contains(out, "loan 1000012345: 1 party") {
		t.Errorf("expected singular party line, got %q", out)
	}
	if !strings.Contains(out, "warning [malformed_fact]") {
		t.Error("expected warning line")
	}
}

func TestRenderBorrowerTo(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(true)

	merged := &model.MergedBorrower{
		BorrowerRef: "john a smith",
		FullName:    "John A Smith",
		Identifiers: []model.MergedIdentifier{
			{Type: model.IdentifierTypeSSN, Value: "999-40-5000", Confidence: model.ConfidenceHigh,
				Evidence: []model.Evidence{{DocumentID: "doc-1"}, {DocumentID: "doc-2"}}},
		},
	}
	r.RenderBorrowerTo(&buf, merged)
	out := buf.String()

	if !strings.Contains(out, "[HIGH] SSN: ***-**-5000 (2 evidence)") {
		t.Errorf("unexpected output: %q", out)
	}
}
