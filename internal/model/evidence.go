package model

// MaxQuoteLen caps the supporting quote carried on a single evidence entry.
const MaxQuoteLen = 300

// Evidence points back to the exact document location that justifies a fact
// or a name association. Immutable once created; always traceable to exactly
// one source document and page.
type Evidence struct {
	DocumentID     string `json:"document_id"`
	SourceFilename string `json:"source_filename"`
	PageNumber     int    `json:"page_number"`               // 1-indexed
	Quote          string `json:"quote,omitempty"`           // <= MaxQuoteLen chars
	SourceContext  string `json:"source_context,omitempty"`  // e.g. "w2_employee_ssn"
	ProximityScore *int   `json:"proximity_score,omitempty"` // 0-3, set during attribution
}

// WithProximity returns a copy of the evidence entry with the proximity score
// set. The original is never mutated.
func (e Evidence) WithProximity(score int) Evidence {
	e.ProximityScore = &score
	return e
}

// NameInProximity is one candidate owner of a fact: a person named near the
// fact in the document, with the structural distance recorded as a score.
//
// Proximity semantics: 3 = same block/line as the fact, 2 = adjacent line,
// 1 = within 2-3 lines, 0 = explicitly not this fact's owner (used to record
// an excluded party, e.g. the employee listed at 0 on an employer-block fact).
type NameInProximity struct {
	FullName       string     `json:"full_name"`
	Evidence       []Evidence `json:"evidence"` // non-empty
	ProximityScore int        `json:"proximity_score"`
}
