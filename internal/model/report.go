package model

import "time"

// WarningCode classifies a data-quality diagnostic raised during attribution.
type WarningCode string

const (
	WarnMalformedFact  WarningCode = "malformed_fact"
	WarnUnattributable WarningCode = "unattributable_fact"
	WarnZeroBorrowers  WarningCode = "zero_borrowers"
)

// Warning is a recoverable data-quality issue attached to attribution output.
// Warnings never abort a run; callers decide whether a warning-laden result is
// good enough to persist.
type Warning struct {
	Code      WarningCode `json:"code"`
	FactIndex int         `json:"fact_index"` // -1 for batch-level warnings
	FactType  FactType    `json:"fact_type,omitempty"`
	Message   string      `json:"message"`
}

// AttributionReport is the complete per-document processing result: the
// attribution output plus provenance and diagnostics.
type AttributionReport struct {
	Meta         DocumentMeta            `json:"meta"`
	ProcessedAt  time.Time               `json:"processed_at"`
	FactCount    int                     `json:"fact_count"`
	Borrowers    []BorrowerExtraction    `json:"borrowers"`
	Applications []ApplicationExtraction `json:"applications"`
	Warnings     []Warning               `json:"warnings,omitempty"`
}
