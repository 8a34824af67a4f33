package model

import (
	"encoding/json"
	"fmt"
)

// FactType discriminates the value union carried by a Fact.
type FactType string

const (
	FactTypeAddress      FactType = "address"
	FactTypeSSN          FactType = "ssn"
	FactTypeIncome       FactType = "income"
	FactTypeLoanNumber   FactType = "loan_number"
	FactTypeEmployerName FactType = "employer_name"
)

// AddressValue is a structured postal address. Zip is the only required
// component.
type AddressValue struct {
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
}

// IncomePeriod bounds the period an income value covers.
type IncomePeriod struct {
	Year      int    `json:"year"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// IncomeValue is one observed income figure with its period and source.
type IncomeValue struct {
	Amount     float64      `json:"amount"`
	Currency   string       `json:"currency"`
	Frequency  string       `json:"frequency,omitempty"`
	Period     IncomePeriod `json:"period"`
	Employer   string       `json:"employer,omitempty"`
	SourceType string       `json:"source_type,omitempty"`
}

// Fact is one atomic extracted datum. The value branch is determined by
// FactType: *AddressValue for address, *IncomeValue for income, and a plain
// string for ssn, loan_number and employer_name.
//
// A Fact is never mutated after extraction; attribution only groups facts and
// re-tags copies of their evidence with a resolved owner.
type Fact struct {
	FactType         FactType          `json:"fact_type"`
	Value            any               `json:"value"`
	Evidence         []Evidence        `json:"evidence"` // non-empty
	NamesInProximity []NameInProximity `json:"names_in_proximity,omitempty"`
}

// Address returns the address branch of the value union.
func (f *Fact) Address() (*AddressValue, bool) {
	v, ok := f.Value.(*AddressValue)
	return v, ok
}

// Income returns the income branch of the value union.
func (f *Fact) Income() (*IncomeValue, bool) {
	v, ok := f.Value.(*IncomeValue)
	return v, ok
}

// StringValue returns the plain-string branch of the value union
// (ssn, loan_number, employer_name).
func (f *Fact) StringValue() (string, bool) {
	v, ok := f.Value.(string)
	return v, ok
}

// PrimaryContext returns the source context of the first evidence entry,
// or "" when the fact carries no evidence.
func (f *Fact) PrimaryContext() string {
	if len(f.Evidence) == 0 {
		return ""
	}
	return f.Evidence[0].SourceContext
}

// UnmarshalJSON decodes the value union according to fact_type. A value that
// does not match its declared branch leaves Value nil rather than failing the
// whole batch; the attribution engine drops such facts with a diagnostic.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var raw struct {
		FactType         FactType          `json:"fact_type"`
		Value            json.RawMessage   `json:"value"`
		Evidence         []Evidence        `json:"evidence"`
		NamesInProximity []NameInProximity `json:"names_in_proximity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode fact: %w", err)
	}

	f.FactType = raw.FactType
	f.Evidence = raw.Evidence
	f.NamesInProximity = raw.NamesInProximity
	f.Value = nil

	if len(raw.Value) == 0 {
		return nil
	}

	switch raw.FactType {
	case FactTypeAddress:
		var v AddressValue
		if err := json.Unmarshal(raw.Value, &v); err == nil {
			f.Value = &v
		}
	case FactTypeIncome:
		var v IncomeValue
		if err := json.Unmarshal(raw.Value, &v); err == nil {
			f.Value = &v
		}
	case FactTypeSSN, FactTypeLoanNumber, FactTypeEmployerName:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err == nil {
			f.Value = s
		}
	}

	return nil
}
