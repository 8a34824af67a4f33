package model

// Confidence is the three-level verdict derived from favorable vs unfavorable
// evidence weight within a conflict domain.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// IdentifierType classifies a borrower identifier.
type IdentifierType string

const (
	IdentifierTypeSSN IdentifierType = "ssn"
)

// PartyRole is the role a borrower plays on an application.
type PartyRole string

const (
	PartyRoleBorrower PartyRole = "borrower"
)

// AttributedAddress is an address fact attached to a single borrower, with the
// owner's proximity score copied onto every evidence entry.
type AttributedAddress struct {
	AddressValue
	Evidence []Evidence `json:"evidence"`
}

// AttributedIncome is an income fact attached to a single borrower.
type AttributedIncome struct {
	IncomeValue
	Evidence []Evidence `json:"evidence"`
}

// AttributedIdentifier is an identifier (currently only SSN) attached to a
// single borrower.
type AttributedIdentifier struct {
	Type     IdentifierType `json:"type"`
	Value    string         `json:"value"`
	Evidence []Evidence     `json:"evidence"`
}

// BorrowerExtraction is the per-document record of everything attributed to
// one resolved person.
type BorrowerExtraction struct {
	BorrowerRef   string                 `json:"borrower_ref"` // normalized name key
	FullName      string                 `json:"full_name"`
	Zip           string                 `json:"zip,omitempty"`
	Addresses     []AttributedAddress    `json:"addresses,omitempty"`
	IncomeHistory []AttributedIncome     `json:"income_history,omitempty"`
	Identifiers   []AttributedIdentifier `json:"identifiers,omitempty"`
	MissingFields []string               `json:"missing_fields,omitempty"`
}

// Party links a borrower to an application with a role.
type Party struct {
	BorrowerRef string    `json:"borrower_ref"`
	FullName    string    `json:"full_name"`
	Role        PartyRole `json:"role"`
}

// ApplicationExtraction is the per-document record of one loan application.
type ApplicationExtraction struct {
	ApplicationRef  string                 `json:"application_ref"`
	LoanNumber      string                 `json:"loan_number"`
	PropertyAddress *AddressValue          `json:"property_address,omitempty"`
	Parties         []Party                `json:"parties,omitempty"`
	Identifiers     []AttributedIdentifier `json:"identifiers,omitempty"`
	Evidence        []Evidence             `json:"evidence,omitempty"`
}

// MergedAddress is a cross-source address group with its confidence verdict.
type MergedAddress struct {
	AddressValue
	Evidence   []Evidence `json:"evidence"`
	Confidence Confidence `json:"confidence"`
}

// MergedIncome is a cross-source income group with its confidence verdict.
type MergedIncome struct {
	IncomeValue
	Evidence   []Evidence `json:"evidence"`
	Confidence Confidence `json:"confidence"`
}

// MergedIdentifier is a cross-source identifier group with its confidence
// verdict.
type MergedIdentifier struct {
	Type       IdentifierType `json:"type"`
	Value      string         `json:"value"`
	Evidence   []Evidence     `json:"evidence"`
	Confidence Confidence     `json:"confidence"`
}

// MergedBorrower is the read-time view of one borrower across all documents.
type MergedBorrower struct {
	BorrowerRef string             `json:"borrower_ref"`
	FullName    string             `json:"full_name"`
	Zip         string             `json:"zip,omitempty"`
	Addresses   []MergedAddress    `json:"addresses,omitempty"`
	Incomes     []MergedIncome     `json:"incomes,omitempty"`
	Identifiers []MergedIdentifier `json:"identifiers,omitempty"`
}
