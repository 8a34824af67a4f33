package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pvasilyev/factfuse/internal/llm"
	"github.com/pvasilyev/factfuse/internal/model"
)

// systemPrompt pins the extractor to the declared fact shape. The model is
// never asked to attribute or merge; it only reports what each page says.
const systemPrompt = `You are a document data extractor for scanned loan-application documents.
You output ONLY a JSON object of the form {"facts":[...]} and nothing else.

Each fact has:
- "fact_type": one of "address", "ssn", "income", "loan_number", "employer_name"
- "value": an address object {street1,street2,city,state,zip}, an income object
  {amount,currency,frequency,period:{year,start_date,end_date},employer,source_type},
  or a plain string for ssn/loan_number/employer_name
- "evidence": at least one entry {document_id, source_filename, page_number, quote, source_context}
  where quote is the exact supporting text (max 300 chars) and source_context names
  the structural block it came from
- "names_in_proximity": every person named near the fact, each with
  {full_name, proximity_score, evidence:[...]} where proximity_score is
  3 = same block/line, 2 = adjacent line, 1 = within 2-3 lines,
  0 = named but explicitly not this fact's owner

Report every candidate name you see, including excluded parties at score 0.
Do not guess values that are not on the page. Do not merge or dedupe anything.`

// typePrompts narrows the model's attention per document type.
var typePrompts = map[model.DocumentType]string{
	model.DocumentTypePaystub: "This is a paystub. Use source_context tags like paystub_employee_info_block, " +
		"paystub_earnings_table, paystub_ytd_summary, paystub_header_employer_block. The employer block " +
		"address belongs to the employer, not the employee; still extract it with its context tag.",
	model.DocumentTypeW2: "This is a W-2. Use source_context tags like w2_employee_ssn, w2_employee_address, " +
		"w2_employee_name, w2_wages_box, w2_employer_block.",
	model.DocumentTypeTaxReturn: "This is a 1040 tax return, possibly jointly filed. Use source_context tags like " +
		"f1040_primary_ssn, f1040_spouse_ssn, f1040_address_block, f1040_income_line, f1040_filer_names. " +
		"Each SSN fact must list only its own filer at proximity 3.",
	model.DocumentTypeBankStatement: "This is a bank statement. Use source_context tags like " +
		"bank_statement_account_holder, bank_statement_address_block, bank_statement_deposit_line.",
	model.DocumentTypeVOE: "This is an employment verification. Use source_context tags like " +
		"voe_employment_details, voe_income_section, voe_employer_block.",
}

// LLMExtractor prompts a completion provider to emit the fact envelope from
// raw document text.
type LLMExtractor struct {
	provider llm.Provider
}

// NewLLMExtractor creates an extractor backed by the given provider.
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

// Name returns the extractor name.
func (e *LLMExtractor) Name() string {
	return "llm:" + e.provider.Name()
}

// DocumentTypes returns every type with a dedicated prompt.
func (e *LLMExtractor) DocumentTypes() []model.DocumentType {
	return []model.DocumentType{
		model.DocumentTypePaystub,
		model.DocumentTypeW2,
		model.DocumentTypeTaxReturn,
		model.DocumentTypeBankStatement,
		model.DocumentTypeVOE,
	}
}

// ExtractFacts prompts the provider and parses its JSON output. The parsed
// facts are stamped with the document's identity and deduped within the
// document before handoff to attribution.
func (e *LLMExtractor) ExtractFacts(ctx context.Context, doc model.Document) ([]model.Fact, error) {
	prompt := buildPrompt(doc)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Meta.DocumentID, err)
	}

	facts, err := parseFactsJSON(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Meta.DocumentID, err)
	}

	stampProvenance(facts, doc.Meta)
	return DedupeFacts(facts), nil
}

func buildPrompt(doc model.Document) string {
	var b strings.Builder
	if hint, ok := typePrompts[doc.Meta.DocumentType]; ok {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "document_id: %s\nsource_filename: %s\n\n", doc.Meta.DocumentID, doc.Meta.SourceFilename)
	b.WriteString("Document text:\n")
	b.WriteString(doc.Text)
	return b.String()
}

// parseFactsJSON decodes the model's {"facts":[...]} output, tolerating a
// fenced code block around the JSON.
func parseFactsJSON(text string) ([]model.Fact, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var envelope struct {
		Facts []model.Fact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("parse facts JSON: %w", err)
	}
	return envelope.Facts, nil
}

// stampProvenance forces every evidence entry onto this document: a model
// echoing a wrong document_id must not corrupt the provenance trail.
func stampProvenance(facts []model.Fact, meta model.DocumentMeta) {
	for i := range facts {
		stampEvidence(facts[i].Evidence, meta)
		for j := range facts[i].NamesInProximity {
			stampEvidence(facts[i].NamesInProximity[j].Evidence, meta)
		}
	}
}

func stampEvidence(evidence []model.Evidence, meta model.DocumentMeta) {
	for i := range evidence {
		evidence[i].DocumentID = meta.DocumentID
		evidence[i].SourceFilename = meta.SourceFilename
		if evidence[i].PageNumber < 1 {
			evidence[i].PageNumber = 1
		}
		if len(evidence[i].Quote) > model.MaxQuoteLen {
			evidence[i].Quote = evidence[i].Quote[:model.MaxQuoteLen]
		}
	}
}
