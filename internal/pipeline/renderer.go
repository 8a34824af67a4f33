package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/store"
)

// Renderer writes attribution reports and merged records as JSON, Markdown
// and terminal summaries. Identifiers are masked everywhere except raw JSON.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes any record as indented JSON.
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes a human-readable attribution report.
func (r *Renderer) RenderMarkdown(report *model.AttributionReport, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Attribution Report: %s\n\n", report.Meta.DocumentID)
	fmt.Fprintf(&b, "- **Source:** %s\n", report.Meta.SourceFilename)
	if report.Meta.DocumentType != "" {
		fmt.Fprintf(&b, "- **Document type:** %s\n", report.Meta.DocumentType)
	}
	fmt.Fprintf(&b, "- **Processed:** %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Facts:** %d\n\n", report.FactCount)

	for _, borrower := range report.Borrowers {
		fmt.Fprintf(&b, "## Borrower: %s\n\n", borrower.FullName)
		for _, addr := range borrower.Addresses {
			fmt.Fprintf(&b, "- Address: %s (%d evidence)\n", formatAddress(addr.AddressValue), len(addr.Evidence))
		}
		for _, inc := range borrower.IncomeHistory {
			fmt.Fprintf(&b, "- Income: %s (%d evidence)\n", formatIncome(inc.IncomeValue), len(inc.Evidence))
		}
		for _, id := range borrower.Identifiers {
			fmt.Fprintf(&b, "- %s: %s (%d evidence)\n", strings.ToUpper(string(id.Type)), MaskIdentifier(id.Value), len(id.Evidence))
		}
		b.WriteString("\n")
	}

	for _, app := range report.Applications {
		fmt.Fprintf(&b, "## Application: %s\n\n", app.LoanNumber)
		for _, party := range app.Parties {
			fmt.Fprintf(&b, "- Party: %s (%s)\n", party.FullName, party.Role)
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- `%s`: %s\n", w.Code, w.Message)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n*Generated by factfuse*\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a one-screen report summary to stdout.
func (r *Renderer) RenderSummary(report *model.AttributionReport) {
	r.RenderSummaryTo(os.Stdout, report)
}

// RenderSummaryTo is RenderSummary with an explicit destination.
func (r *Renderer) RenderSummaryTo(w io.Writer, report *model.AttributionReport) {
	fmt.Fprintf(w, "\nDocument %s (%s)\n", report.Meta.DocumentID, report.Meta.SourceFilename)
	fmt.Fprintf(w, "  facts: %d  borrowers: %d  applications: %d  warnings: %d\n",
		report.FactCount, len(report.Borrowers), len(report.Applications), len(report.Warnings))

	for _, borrower := range report.Borrowers {
		fmt.Fprintf(w, "  %s: %d address(es), %d income(s), %d identifier(s)\n",
			borrower.FullName, len(borrower.Addresses), len(borrower.IncomeHistory), len(borrower.Identifiers))
	}
	for _, app := range report.Applications {
		fmt.Fprintf(w, "  loan %s: %d part%s\n", app.LoanNumber, len(app.Parties), plural(len(app.Parties), "y", "ies"))
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  warning [%s]: %s\n", warning.Code, warning.Message)
	}
}

// RenderBorrowerTo prints a merged borrower record with per-group confidence.
func (r *Renderer) RenderBorrowerTo(w io.Writer, merged *model.MergedBorrower) {
	fmt.Fprintf(w, "\nBorrower %s (%s)\n", merged.FullName, merged.BorrowerRef)

	for _, addr := range merged.Addresses {
		fmt.Fprintf(w, "  [%s] address: %s (%d evidence)\n",
			addr.Confidence, formatAddress(addr.AddressValue), len(addr.Evidence))
	}
	for _, inc := range merged.Incomes {
		fmt.Fprintf(w, "  [%s] income: %s (%d evidence)\n",
			inc.Confidence, formatIncome(inc.IncomeValue), len(inc.Evidence))
	}
	for _, id := range merged.Identifiers {
		fmt.Fprintf(w, "  [%s] %s: %s (%d evidence)\n",
			id.Confidence, strings.ToUpper(string(id.Type)), MaskIdentifier(id.Value), len(id.Evidence))
	}
}

// RenderApplicationTo prints a merged application record.
func (r *Renderer) RenderApplicationTo(w io.Writer, merged *store.MergedApplication) {
	fmt.Fprintf(w, "\nApplication %s (loan %s)\n", merged.ApplicationRef, merged.LoanNumber)

	if merged.PropertyAddress != nil {
		fmt.Fprintf(w, "  property: %s\n", formatAddress(*merged.PropertyAddress))
	}
	for _, party := range merged.Parties {
		fmt.Fprintf(w, "  party: %s (%s)\n", party.FullName, party.Role)
	}
	for _, id := range merged.Identifiers {
		fmt.Fprintf(w, "  [%s] %s: %s (%d evidence)\n",
			id.Confidence, strings.ToUpper(string(id.Type)), MaskIdentifier(id.Value), len(id.Evidence))
	}
}

// MaskIdentifier hides all but the last four characters of an identifier.
func MaskIdentifier(value string) string {
	trimmed := strings.NewReplacer("-", "", " ", "").Replace(value)
	if len(trimmed) <= 4 {
		return value
	}
	return "***-**-" + trimmed[len(trimmed)-4:]
}

func formatAddress(addr model.AddressValue) string {
	parts := make([]string, 0, 4)
	if addr.Street1 != "" {
		street := addr.Street1
		if addr.Street2 != "" {
			street += " " + addr.Street2
		}
		parts = append(parts, street)
	}
	if addr.City != "" {
		parts = append(parts, addr.City)
	}
	if addr.State != "" {
		parts = append(parts, addr.State)
	}
	parts = append(parts, addr.Zip)
	return strings.Join(parts, ", ")
}

func formatIncome(inc model.IncomeValue) string {
	s := fmt.Sprintf("%.2f %s", inc.Amount, inc.Currency)
	if inc.Frequency != "" {
		s += " " + inc.Frequency
	}
	if inc.Period.Year != 0 {
		s += fmt.Sprintf(" (%d)", inc.Period.Year)
	}
	if inc.Employer != "" {
		s += " from " + inc.Employer
	}
	return s
}

func plural(n int, singular, pluralSuffix string) string {
	if n == 1 {
		return singular
	}
	return pluralSuffix
}
