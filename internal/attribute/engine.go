// Package attribute routes extracted facts to borrowers and applications.
// The engine is a pure function over one document's fact batch: no I/O, no
// clock, deterministic for a given fact list and tie-break policy.
package attribute

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
	"github.com/pvasilyev/factfuse/internal/resolve"
)

// ErrNilFacts marks a contract violation: attribution requires a facts slice,
// even an empty one. Data-quality problems never produce errors.
var ErrNilFacts = errors.New("attribute: facts slice is nil")

// employerContextMark excludes employer-side address blocks: an employer's
// address must never become a borrower address, regardless of proximity.
const employerContextMark = "employer"

// Result is one document's attribution output.
type Result struct {
	Borrowers    []model.BorrowerExtraction
	Applications []model.ApplicationExtraction
	Warnings     []model.Warning
}

// Engine attributes facts using an injected weight policy for name tie-breaks.
type Engine struct {
	policy *policy.Policy
}

// NewEngine creates an attribution engine.
func NewEngine(pol *policy.Policy) *Engine {
	if pol == nil {
		pol = policy.Default()
	}
	return &Engine{policy: pol}
}

// Attribute walks the fact list in order, routes each fact by type, and
// assembles one BorrowerExtraction per distinct borrower ref plus one
// ApplicationExtraction per loan_number fact. Malformed or unattributable
// facts are dropped individually with a warning; the batch never fails.
func (e *Engine) Attribute(facts []model.Fact, meta model.DocumentMeta) (*Result, error) {
	if facts == nil {
		return nil, ErrNilFacts
	}

	b := newBuilder(e.policy)

	for i := range facts {
		fact := &facts[i]
		switch fact.FactType {
		case model.FactTypeAddress:
			b.routeAddress(i, fact)
		case model.FactTypeSSN:
			b.routeSSN(i, fact)
		case model.FactTypeIncome:
			b.routeIncome(i, fact)
		case model.FactTypeLoanNumber:
			b.routeLoanNumber(i, fact)
		case model.FactTypeEmployerName:
			// Accepted and discarded: employer names are not persisted to any
			// borrower or application record in the current contract.
		default:
			b.warnMalformed(i, fact.FactType, fmt.Sprintf("unknown fact type %q", fact.FactType))
		}
	}

	if len(facts) > 0 && len(b.order) == 0 {
		b.warnings = append(b.warnings, model.Warning{
			Code:      model.WarnZeroBorrowers,
			FactIndex: -1,
			Message:   fmt.Sprintf("no borrowers produced from %d facts in document %s: no fact carried a usable name", len(facts), meta.DocumentID),
		})
	}

	return &Result{
		Borrowers:    b.borrowers(),
		Applications: b.applications,
		Warnings:     b.warnings,
	}, nil
}

// builder accumulates per-document state during one attribution pass.
type builder struct {
	policy       *policy.Policy
	byRef        map[string]*model.BorrowerExtraction
	order        []string
	applications []model.ApplicationExtraction
	warnings     []model.Warning
}

func newBuilder(pol *policy.Policy) *builder {
	return &builder{
		policy: pol,
		byRef:  make(map[string]*model.BorrowerExtraction),
	}
}

func (b *builder) routeAddress(idx int, fact *model.Fact) {
	if strings.Contains(fact.PrimaryContext(), employerContextMark) {
		// Employer-block address: excluded from every borrower by rule,
		// not a data-quality problem.
		return
	}

	addr, ok := fact.Address()
	if !ok {
		b.warnMalformed(idx, fact.FactType, "address value has wrong shape")
		return
	}
	if addr.Zip == "" {
		b.warnMalformed(idx, fact.FactType, "address value is missing zip")
		return
	}

	owner := resolve.ChooseBestName(fact.NamesInProximity, b.policy)
	if owner == nil {
		b.warnUnattributable(idx, fact.FactType)
		return
	}

	// An address block naming several people at the winning proximity is
	// jointly owned (spouses on a shared return): the address is duplicated
	// onto each tied owner, not merged into one shared object.
	for _, co := range coOwners(fact.NamesInProximity, owner.ProximityScore) {
		borrower := b.borrower(co.FullName)
		borrower.Addresses = append(borrower.Addresses, model.AttributedAddress{
			AddressValue: *addr,
			Evidence:     evidenceWithProximity(fact.Evidence, co.ProximityScore),
		})
		if borrower.Zip == "" {
			borrower.Zip = addr.Zip
		}
	}
}

// coOwners returns the candidates tied at the winning proximity score,
// deduplicated by normalized name in input order.
func coOwners(names []model.NameInProximity, winningScore int) []model.NameInProximity {
	var out []model.NameInProximity
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n.ProximityScore != winningScore {
			continue
		}
		key := resolve.Normalize(n.FullName)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func (b *builder) routeSSN(idx int, fact *model.Fact) {
	value, ok := fact.StringValue()
	if !ok || strings.TrimSpace(value) == "" {
		b.warnMalformed(idx, fact.FactType, "ssn value is not a non-empty string")
		return
	}

	owner := resolve.ChooseBestName(fact.NamesInProximity, b.policy)
	if owner == nil {
		b.warnUnattributable(idx, fact.FactType)
		return
	}

	// Single-owner routing is what keeps joint filers apart: each spouse's
	// SSN lands only on the record of the name resolved for that fact.
	borrower := b.borrower(owner.FullName)
	borrower.Identifiers = append(borrower.Identifiers, model.AttributedIdentifier{
		Type:     model.IdentifierTypeSSN,
		Value:    strings.TrimSpace(value),
		Evidence: append([]model.Evidence(nil), fact.Evidence...),
	})
}

func (b *builder) routeIncome(idx int, fact *model.Fact) {
	income, ok := fact.Income()
	if !ok {
		b.warnMalformed(idx, fact.FactType, "income value has wrong shape or non-numeric amount")
		return
	}
	if math.IsNaN(income.Amount) || math.IsInf(income.Amount, 0) {
		b.warnMalformed(idx, fact.FactType, "income amount is not a finite number")
		return
	}

	owner := resolve.ChooseBestName(fact.NamesInProximity, b.policy)
	if owner == nil {
		b.warnUnattributable(idx, fact.FactType)
		return
	}

	borrower := b.borrower(owner.FullName)
	borrower.IncomeHistory = append(borrower.IncomeHistory, model.AttributedIncome{
		IncomeValue: *income,
		Evidence:    append([]model.Evidence(nil), fact.Evidence...),
	})
}

func (b *builder) routeLoanNumber(idx int, fact *model.Fact) {
	value, ok := fact.StringValue()
	if !ok || strings.TrimSpace(value) == "" {
		b.warnMalformed(idx, fact.FactType, "loan_number value is not a non-empty string")
		return
	}
	loanNumber := strings.TrimSpace(value)

	// Loan ownership is shared and semantic, not positional: every distinct
	// qualifying name becomes a party, regardless of proximity score.
	parties := resolve.AllQualifyingNames(fact.NamesInProximity)

	app := model.ApplicationExtraction{
		ApplicationRef: "app:" + loanNumber,
		LoanNumber:     loanNumber,
		Evidence:       append([]model.Evidence(nil), fact.Evidence...),
	}
	for _, p := range parties {
		app.Parties = append(app.Parties, model.Party{
			BorrowerRef: resolve.BorrowerRef(p.FullName),
			FullName:    p.FullName,
			Role:        model.PartyRoleBorrower,
		})
		// A person seen only on a loan_number fact still gets a borrower
		// record.
		b.borrower(p.FullName)
	}

	b.applications = append(b.applications, app)
}

// borrower returns the record for a full name, creating it on first use.
// Creation order is preserved so output is deterministic.
func (b *builder) borrower(fullName string) *model.BorrowerExtraction {
	ref := resolve.BorrowerRef(fullName)
	if existing, ok := b.byRef[ref]; ok {
		return existing
	}
	record := &model.BorrowerExtraction{
		BorrowerRef: ref,
		FullName:    fullName,
	}
	b.byRef[ref] = record
	b.order = append(b.order, ref)
	return record
}

func (b *builder) borrowers() []model.BorrowerExtraction {
	out := make([]model.BorrowerExtraction, 0, len(b.order))
	for _, ref := range b.order {
		record := *b.byRef[ref]
		record.MissingFields = missingFields(&record)
		out = append(out, record)
	}
	return out
}

// missingFields lists the expected field groups this document contributed
// nothing to, so downstream consumers can tell "absent" from "empty".
func missingFields(record *model.BorrowerExtraction) []string {
	var missing []string
	if len(record.Addresses) == 0 {
		missing = append(missing, "addresses")
	}
	if len(record.IncomeHistory) == 0 {
		missing = append(missing, "income_history")
	}
	if len(record.Identifiers) == 0 {
		missing = append(missing, "identifiers")
	}
	return missing
}

func (b *builder) warnMalformed(idx int, ft model.FactType, msg string) {
	b.warnings = append(b.warnings, model.Warning{
		Code:      model.WarnMalformedFact,
		FactIndex: idx,
		FactType:  ft,
		Message:   msg,
	})
}

func (b *builder) warnUnattributable(idx int, ft model.FactType) {
	b.warnings = append(b.warnings, model.Warning{
		Code:      model.WarnUnattributable,
		FactIndex: idx,
		FactType:  ft,
		Message:   "no usable name candidate in proximity",
	})
}

// evidenceWithProximity copies the resolved owner's proximity score onto
// every evidence entry, so downstream confidence computation can see how
// strongly this fact supports its owner.
func evidenceWithProximity(evidence []model.Evidence, score int) []model.Evidence {
	out := make([]model.Evidence, len(evidence))
	for i, ev := range evidence {
		out[i] = ev.WithProximity(score)
	}
	return out
}
