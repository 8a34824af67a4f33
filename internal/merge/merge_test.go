package merge

import (
	"reflect"
	"testing"

	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
)

func ev(doc, context string) model.Evidence {
	return model.Evidence{
		DocumentID:     doc,
		SourceFilename: doc + ".pdf",
		PageNumber:     1,
		SourceContext:  context,
	}
}

func ssn(value string, evidence ...model.Evidence) model.AttributedIdentifier {
	return model.AttributedIdentifier{
		Type:     model.IdentifierTypeSSN,
		Value:    value,
		Evidence: evidence,
	}
}

func TestIdentifierKey_StripsSeparators(t *testing.T) {
	a := IdentifierKey(model.IdentifierTypeSSN, "999-40-5000")
	b := IdentifierKey(model.IdentifierTypeSSN, "999 40 5000")
	c := IdentifierKey(model.IdentifierTypeSSN, "999405000")
	if a != b || b != c {
		t.Errorf("separator variants must share a key: %q %q %q", a, b, c)
	}
}

func TestAddressKey_Normalization(t *testing.T) {
	a := AddressKey(model.AddressValue{Street1: " 12 Oak St ", City: "Arlington", State: "VA", Zip: "22201"})
	b := AddressKey(model.AddressValue{Street1: "12 OAK ST", City: "arlington", State: "va", Zip: "22201"})
	if a != b {
		t.Errorf("case/space variants must share a key: %q vs %q", a, b)
	}

	c := AddressKey(model.AddressValue{Street1: "12 Oak St", City: "Arlington", State: "VA", Zip: "22202"})
	if a == c {
		t.Error("different zips must not share a key")
	}
}

func TestMergeIdentifiers_UnopposedIsHigh(t *testing.T) {
	engine := NewEngine(policy.Default())

	got := engine.MergeIdentifiers([]model.AttributedIdentifier{
		ssn("999-40-5000", ev("doc-1", "w2_employee_ssn")),
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 merged identifier, got %d", len(got))
	}
	if got[0].Confidence != model.ConfidenceHigh {
		t.Errorf("unopposed value must be HIGH, got %s", got[0].Confidence)
	}
}

func TestMergeIdentifiers_MultiSourceUpgrade(t *testing.T) {
	engine := NewEngine(policy.Default())

	// Same SSN, masked on one document and unmasked on another, merged by
	// normalized value.
	got := engine.MergeIdentifiers([]model.AttributedIdentifier{
		ssn("999-40-5000", ev("doc-1", "f1040_primary_ssn")),
		ssn("999 40 5000", ev("doc-2", "w2_employee_ssn")),
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 merged identifier, got %d", len(got))
	}
	if got[0].Confidence != model.ConfidenceHigh {
		t.Errorf("expected HIGH, got %s", got[0].Confidence)
	}
	if len(got[0].Evidence) < 2 {
		t.Errorf("expected merged evidence from both documents, got %d entries", len(got[0].Evidence))
	}
}

func TestMergeIdentifiers_CompetingValues(t *testing.T) {
	engine := NewEngine(policy.Default())

	// Two documents back one SSN, a single OCR misread backs another.
	got := engine.MergeIdentifiers([]model.AttributedIdentifier{
		ssn("999-40-5000", ev("doc-1", "f1040_primary_ssn")),
		ssn("999-40-5000", ev("doc-2", "w2_employee_ssn")),
		ssn("999-40-5008", ev("doc-3", "bank_statement_deposit_line")),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 merged identifiers, got %d", len(got))
	}

	byValue := map[string]model.Confidence{}
	for _, m := range got {
		byValue[m.Value] = m.Confidence
	}
	// favorable 6.0 vs unfavorable 1.0 -> HIGH; 1.0 vs 6.0 -> LOW.
	if byValue["999-40-5000"] != model.ConfidenceHigh {
		t.Errorf("majority value: expected HIGH, got %s", byValue["999-40-5000"])
	}
	if byValue["999-40-5008"] != model.ConfidenceLow {
		t.Errorf("minority value: expected LOW, got %s", byValue["999-40-5008"])
	}
}

func TestMergeIdentifiers_ExactBalanceIsMedium(t *testing.T) {
	engine := NewEngine(policy.Default())

	// Equal weight on both sides: score exactly 1.0 lands in the narrow
	// MEDIUM band, not HIGH.
	got := engine.MergeIdentifiers([]model.AttributedIdentifier{
		ssn("111-11-1111", ev("doc-1", "w2_employee_ssn")),
		ssn("222-22-2222", ev("doc-2", "f1040_primary_ssn")),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 merged identifiers, got %d", len(got))
	}
	for _, m := range got {
		if m.Confidence != model.ConfidenceMedium {
			t.Errorf("%s: expected MEDIUM at exact balance, got %s", m.Value, m.Confidence)
		}
	}
}

func TestMergeIdentifiers_UnfavorableScopedToSameType(t *testing.T) {
	engine := NewEngine(policy.Default())

	rows := []model.AttributedIdentifier{
		ssn("999-40-5000", ev("doc-1", "w2_employee_ssn")),
		{
			Type:     model.IdentifierType("drivers_license"),
			Value:    "D123-4567",
			Evidence: []model.Evidence{ev("doc-2", "urla_borrower_section")},
		},
	}

	got := engine.MergeIdentifiers(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 merged identifiers, got %d", len(got))
	}
	// Different types never compete, so both are unopposed.
	for _, m := range got {
		if m.Confidence != model.ConfidenceHigh {
			t.Errorf("%s/%s: expected HIGH, got %s", m.Type, m.Value, m.Confidence)
		}
	}
}

func TestMergeAddresses_ConfidenceMonotonicity(t *testing.T) {
	engine := NewEngine(policy.Default())

	home := model.AddressValue{Street1: "1 Capitol Way", City: "Washington", State: "DC", Zip: "20013"}
	old := model.AddressValue{Street1: "9 Prior Pl", City: "Bethesda", State: "MD", Zip: "20814"}

	base := []model.AttributedAddress{
		{AddressValue: home, Evidence: []model.Evidence{ev("doc-1", "f1040_address_block")}},
		{AddressValue: old, Evidence: []model.Evidence{ev("doc-2", "bank_statement_address_block")}},
	}
	more := append(append([]model.AttributedAddress(nil), base...), model.AttributedAddress{
		AddressValue: home,
		Evidence:     []model.Evidence{ev("doc-3", "w2_employee_address")},
	})

	rank := map[model.Confidence]int{
		model.ConfidenceLow:    0,
		model.ConfidenceMedium: 1,
		model.ConfidenceHigh:   2,
	}

	confidenceOf := func(rows []model.AttributedAddress) model.Confidence {
		for _, m := range engine.MergeAddresses(rows) {
			if m.Zip == home.Zip {
				return m.Confidence
			}
		}
		t.Fatal("home address group missing")
		return ""
	}

	before := confidenceOf(base)
	after := confidenceOf(more)
	if rank[after] < rank[before] {
		t.Errorf("adding corroborating evidence decreased confidence: %s -> %s", before, after)
	}
}

func TestMergeIncomes_GroupKey(t *testing.T) {
	engine := NewEngine(policy.Default())

	w2 := model.IncomeValue{
		Amount:     85000,
		Currency:   "USD",
		Employer:   "Initech LLC",
		SourceType: "w2",
		Period:     model.IncomePeriod{Year: 2023},
	}
	sameDifferentCase := w2
	sameDifferentCase.Employer = "  initech llc "
	otherYear := w2
	otherYear.Period.Year = 2022

	got := engine.MergeIncomes([]model.AttributedIncome{
		{IncomeValue: w2, Evidence: []model.Evidence{ev("doc-1", "w2_wages_box")}},
		{IncomeValue: sameDifferentCase, Evidence: []model.Evidence{ev("doc-2", "f1040_income_line")}},
		{IncomeValue: otherYear, Evidence: []model.Evidence{ev("doc-3", "w2_wages_box")}},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 income groups, got %d", len(got))
	}
	if len(got[0].Evidence) != 2 {
		t.Errorf("same (source, employer, year) must merge: got %d evidence entries", len(got[0].Evidence))
	}
}

func TestMergeBorrower_Idempotent(t *testing.T) {
	engine := NewEngine(policy.Default())

	extractions := []model.BorrowerExtraction{
		{
			BorrowerRef: "john homeowner",
			FullName:    "John Homeowner",
			Zip:         "20013",
			Addresses: []model.AttributedAddress{
				{
					AddressValue: model.AddressValue{Street1: "1 Capitol Way", City: "Washington", State: "DC", Zip: "20013"},
					Evidence:     []model.Evidence{ev("doc-1", "f1040_address_block")},
				},
			},
			Identifiers: []model.AttributedIdentifier{
				ssn("999-40-5000", ev("doc-1", "f1040_primary_ssn")),
			},
		},
		{
			BorrowerRef: "john homeowner",
			FullName:    "John Homeowner",
			Identifiers: []model.AttributedIdentifier{
				ssn("999 40 5000", ev("doc-2", "w2_employee_ssn")),
			},
		},
	}

	first := engine.MergeBorrower(extractions)
	second := engine.MergeBorrower(extractions)
	if !reflect.DeepEqual(first, second) {
		t.Error("merge is not idempotent over the same snapshot")
	}

	if len(first.Identifiers) != 1 {
		t.Fatalf("expected masked/unmasked SSNs merged, got %d", len(first.Identifiers))
	}
	if first.Identifiers[0].Confidence != model.ConfidenceHigh {
		t.Errorf("expected HIGH after cross-document corroboration, got %s", first.Identifiers[0].Confidence)
	}
	if len(first.Identifiers[0].Evidence) != 2 {
		t.Errorf("provenance trail incomplete: %d evidence entries", len(first.Identifiers[0].Evidence))
	}
}

func TestMergeBorrower_Empty(t *testing.T) {
	engine := NewEngine(policy.Default())
	if got := engine.MergeBorrower(nil); got != nil {
		t.Errorf("expected nil for empty input, got %+v", got)
	}
}
