package policy

// shippedWeights is the built-in trust table: how much weight an evidence
// entry contributes given the structural block it was extracted from.
// Identity-bearing blocks (SSN boxes, account-holder lines) score highest;
// employer-side blocks score lowest because they describe the employer, not
// the borrower.
var shippedWeights = map[string]float64{
	// W-2
	"w2_employee_ssn":     3.0,
	"w2_employee_address": 2.5,
	"w2_employee_name":    2.5,
	"w2_wages_box":        2.0,
	"w2_employer_block":   0.5,

	// 1040 tax return
	"f1040_primary_ssn":   3.0,
	"f1040_spouse_ssn":    3.0,
	"f1040_address_block": 2.5,
	"f1040_income_line":   2.0,
	"f1040_filer_names":   2.0,

	// Paystub
	"paystub_employee_info_block":   2.5,
	"paystub_earnings_table":        2.0,
	"paystub_ytd_summary":           1.5,
	"paystub_header_employer_block": 0.5,

	// Bank statement
	"bank_statement_account_holder": 2.5,
	"bank_statement_address_block":  2.0,
	"bank_statement_deposit_line":   1.0,

	// Employment verification
	"voe_employment_details": 2.0,
	"voe_income_section":     2.0,
	"voe_employer_block":     0.5,

	// Loan file
	"urla_borrower_section": 2.5,
	"urla_loan_number":      3.0,
	"loan_estimate_header":  2.0,

	// OCR fallback: text matched outside any recognized block.
	"freeform_text": 0.0,
}
