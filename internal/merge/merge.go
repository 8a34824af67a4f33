// Package merge groups same-subject facts across documents by exact-match
// normalized keys and derives a confidence verdict for each merged value from
// the weighted evidence supporting it versus the evidence behind competing
// values in the same conflict domain.
//
// The engine is a pure aggregation over a snapshot of attributed rows: no
// persistent state, idempotent, safe to re-run on every read.
package merge

import (
	"math"
	"strconv"
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
)

// epsilon floors the unfavorable weight so an unopposed value divides by a
// tiny number instead of zero. A single corroborating document is therefore
// "confident" by default; see the MEDIUM band below for the only exception.
const epsilon = 1e-6

// mediumBand is the half-width of the MEDIUM verdict around a score of 1.0.
const mediumBand = 1e-4

// Engine merges attributed rows under an injected weight policy.
type Engine struct {
	policy *policy.Policy
}

// NewEngine creates a merge engine.
func NewEngine(pol *policy.Policy) *Engine {
	if pol == nil {
		pol = policy.Default()
	}
	return &Engine{policy: pol}
}

// AddressKey is the exact-match grouping key for an address. No fuzzy logic:
// two addresses merge only when their normalized components are identical.
func AddressKey(a model.AddressValue) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(a.Street1)),
		strings.ToLower(strings.TrimSpace(a.City)),
		strings.ToLower(strings.TrimSpace(a.State)),
		strings.TrimSpace(a.Zip),
	}, "|")
}

// IncomeKey is the exact-match grouping key for an income figure.
func IncomeKey(v model.IncomeValue) string {
	return strings.Join([]string{
		strings.TrimSpace(v.SourceType),
		strings.ToUpper(strings.TrimSpace(v.Employer)),
		yearString(v.Period.Year),
	}, "|")
}

// IdentifierKey is the exact-match grouping key for an identifier. Whitespace
// and hyphens are stripped so masked and unmasked renderings of the same SSN
// written with different separators still merge.
func IdentifierKey(t model.IdentifierType, value string) string {
	return string(t) + "|" + normalizeIdentifier(value)
}

func normalizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r == '-' || r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// MergeAddresses merges one borrower's addresses. The input slice is one
// conflict domain: every distinct grouped address competes with every other.
func (e *Engine) MergeAddresses(rows []model.AttributedAddress) []model.MergedAddress {
	groups := e.group(len(rows), func(i int) (string, []model.Evidence) {
		return AddressKey(rows[i].AddressValue), rows[i].Evidence
	})

	out := make([]model.MergedAddress, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.MergedAddress{
			AddressValue: rows[g.first].AddressValue,
			Evidence:     g.evidence,
			Confidence:   verdict(g.favorable, g.unfavorable),
		})
	}
	return out
}

// MergeIncomes merges one borrower's income history as a single conflict
// domain.
func (e *Engine) MergeIncomes(rows []model.AttributedIncome) []model.MergedIncome {
	groups := e.group(len(rows), func(i int) (string, []model.Evidence) {
		return IncomeKey(rows[i].IncomeValue), rows[i].Evidence
	})

	out := make([]model.MergedIncome, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.MergedIncome{
			IncomeValue: rows[g.first].IncomeValue,
			Evidence:    g.evidence,
			Confidence:  verdict(g.favorable, g.unfavorable),
		})
	}
	return out
}

// MergeIdentifiers merges one borrower's identifiers. Unfavorable weight is
// scoped to same-typed identifiers: a competing SSN never counts against a
// driver's-license number. Each identifier type is its own conflict domain.
func (e *Engine) MergeIdentifiers(rows []model.AttributedIdentifier) []model.MergedIdentifier {
	byType := make(map[model.IdentifierType][]int)
	var typeOrder []model.IdentifierType
	for i := range rows {
		t := rows[i].Type
		if _, seen := byType[t]; !seen {
			typeOrder = append(typeOrder, t)
		}
		byType[t] = append(byType[t], i)
	}

	var out []model.MergedIdentifier
	for _, t := range typeOrder {
		idx := byType[t]
		groups := e.group(len(idx), func(i int) (string, []model.Evidence) {
			row := rows[idx[i]]
			return IdentifierKey(row.Type, row.Value), row.Evidence
		})
		for _, g := range groups {
			row := rows[idx[g.first]]
			out = append(out, model.MergedIdentifier{
				Type:       row.Type,
				Value:      row.Value,
				Evidence:   g.evidence,
				Confidence: verdict(g.favorable, g.unfavorable),
			})
		}
	}
	return out
}

// MergeBorrower produces the read-time view of one borrower from the union of
// its stored per-document extractions.
func (e *Engine) MergeBorrower(extractions []model.BorrowerExtraction) *model.MergedBorrower {
	if len(extractions) == 0 {
		return nil
	}

	merged := &model.MergedBorrower{
		BorrowerRef: extractions[0].BorrowerRef,
		FullName:    extractions[0].FullName,
	}

	var addresses []model.AttributedAddress
	var incomes []model.AttributedIncome
	var identifiers []model.AttributedIdentifier
	for _, ex := range extractions {
		if merged.Zip == "" {
			merged.Zip = ex.Zip
		}
		addresses = append(addresses, ex.Addresses...)
		incomes = append(incomes, ex.IncomeHistory...)
		identifiers = append(identifiers, ex.Identifiers...)
	}

	merged.Addresses = e.MergeAddresses(addresses)
	merged.Incomes = e.MergeIncomes(incomes)
	merged.Identifiers = e.MergeIdentifiers(identifiers)
	return merged
}

// mergeGroup is one grouped value with its accumulated weights.
type mergeGroup struct {
	first       int // index of the first contributing row
	evidence    []model.Evidence
	favorable   float64
	unfavorable float64
}

// group folds rows into groups by key, concatenating evidence and summing
// weight, then distributes the domain total into per-group unfavorable
// weight. Group order follows first appearance, so merging is deterministic.
func (e *Engine) group(n int, row func(i int) (string, []model.Evidence)) []mergeGroup {
	index := make(map[string]int, n)
	var groups []mergeGroup

	for i := 0; i < n; i++ {
		key, evidence := row(i)
		gi, seen := index[key]
		if !seen {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, mergeGroup{first: i})
		}
		g := &groups[gi]
		g.evidence = append(g.evidence, evidence...)
		for _, ev := range evidence {
			g.favorable += e.policy.Weight(ev.SourceContext)
		}
	}

	var total float64
	for i := range groups {
		total += groups[i].favorable
	}
	for i := range groups {
		groups[i].unfavorable = total - groups[i].favorable
	}

	return groups
}

// verdict derives the confidence level from the favorable/unfavorable ratio.
// The HIGH check runs first, so a score of exactly 1.0 falls into the narrow
// MEDIUM band rather than HIGH.
func verdict(favorable, unfavorable float64) model.Confidence {
	score := favorable / math.Max(unfavorable, epsilon)
	switch {
	case score > 1:
		return model.ConfidenceHigh
	case score >= 1-mediumBand && score <= 1+mediumBand:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
