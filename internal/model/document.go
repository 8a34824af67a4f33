package model

import "time"

// DocumentType identifies the kind of source document a fact batch came from.
// The attribution core never branches on it; it selects the extractor.
type DocumentType string

const (
	DocumentTypePaystub       DocumentType = "paystub"
	DocumentTypeW2            DocumentType = "w2"
	DocumentTypeTaxReturn     DocumentType = "tax_return_1040"
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeVOE           DocumentType = "employment_verification"
	DocumentTypeUnknown       DocumentType = "unknown"
)

// DocumentMeta describes the source document a fact batch was extracted from.
type DocumentMeta struct {
	DocumentID     string       `json:"document_id"`
	SourceFilename string       `json:"source_filename"`
	SourceSystem   string       `json:"source_system,omitempty"`
	SourceDocID    string       `json:"source_doc_id,omitempty"`
	DocumentType   DocumentType `json:"document_type,omitempty"`
	DiscoveredAt   *time.Time   `json:"discovered_at,omitempty"`
}

// Document is raw document text plus metadata, the input to an extractor.
type Document struct {
	Meta DocumentMeta `json:"meta"`
	Text string       `json:"text"`
}

// FactBatch is the envelope a document extractor produces and the attribution
// engine consumes: one document's metadata plus every fact found in it.
type FactBatch struct {
	Meta  DocumentMeta `json:"meta"`
	Facts []Fact       `json:"facts"`
}
