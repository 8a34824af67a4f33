package policy

import "testing"

func TestPolicy_KnownContexts(t *testing.T) {
	pol := Default()

	cases := []struct {
		context string
		want    float64
	}{
		{"w2_employee_ssn", 3.0},
		{"f1040_spouse_ssn", 3.0},
		{"paystub_employee_info_block", 2.5},
		{"paystub_header_employer_block", 0.5},
		{"freeform_text", 0.0},
	}

	for _, tc := range cases {
		if got := pol.Weight(tc.context); got != tc.want {
			t.Errorf("Weight(%q) = %v, want %v", tc.context, got, tc.want)
		}
	}
}

func TestPolicy_DefaultFallback(t *testing.T) {
	pol := Default()

	if got := pol.Weight(""); got != DefaultWeight {
		t.Errorf("Weight(\"\") = %v, want %v", got, DefaultWeight)
	}
	if got := pol.Weight("some_unknown_block"); got != DefaultWeight {
		t.Errorf("Weight(unknown) = %v, want %v", got, DefaultWeight)
	}
}

func TestPolicy_Overrides(t *testing.T) {
	pol := New(map[string]float64{
		"w2_employee_ssn": 1.5,
		"custom_block":    2.0,
	}, 0.25)

	if got := pol.Weight("w2_employee_ssn"); got != 1.5 {
		t.Errorf("override not applied: got %v, want 1.5", got)
	}
	if got := pol.Weight("custom_block"); got != 2.0 {
		t.Errorf("new context not applied: got %v, want 2.0", got)
	}
	if got := pol.Weight("nope"); got != 0.25 {
		t.Errorf("custom default not applied: got %v, want 0.25", got)
	}
	// Untouched entries survive the merge.
	if got := pol.Weight("f1040_primary_ssn"); got != 3.0 {
		t.Errorf("shipped entry lost: got %v, want 3.0", got)
	}
}

func TestPolicy_RangeSanity(t *testing.T) {
	for ctx, w := range shippedWeights {
		if w < 0 || w > 3.0 {
			t.Errorf("shipped weight for %q out of range: %v", ctx, w)
		}
	}
}
