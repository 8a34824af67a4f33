package extract

import (
	"strings"

	"github.com/pvasilyev/factfuse/internal/merge"
	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/resolve"
)

// DedupeFacts collapses repeats of the same logical fact within one document
// (a paystub prints the same address in header and footer). Evidence is
// concatenated and candidate names re-resolved through the same
// normalized-name merge used everywhere else; cross-document merging stays
// the job of the merge engine.
func DedupeFacts(facts []model.Fact) []model.Fact {
	if len(facts) == 0 {
		return facts
	}

	index := make(map[string]int, len(facts))
	out := make([]model.Fact, 0, len(facts))

	for _, fact := range facts {
		key, ok := factKey(&fact)
		if !ok {
			// Facts without a usable identity key pass through untouched;
			// attribution will warn on them individually.
			out = append(out, fact)
			continue
		}

		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			copied := fact
			copied.Evidence = append([]model.Evidence(nil), fact.Evidence...)
			copied.NamesInProximity = append([]model.NameInProximity(nil), fact.NamesInProximity...)
			out = append(out, copied)
			continue
		}

		out[i].Evidence = append(out[i].Evidence, fact.Evidence...)
		out[i].NamesInProximity = resolve.AllQualifyingNames(
			append(out[i].NamesInProximity, fact.NamesInProximity...))
	}

	return out
}

// factKey builds the intra-document identity key for a fact. Employer-block
// and borrower-block copies of an address stay separate: the source context
// is part of the key for addresses because the exclusion rule depends on it.
func factKey(f *model.Fact) (string, bool) {
	switch f.FactType {
	case model.FactTypeAddress:
		addr, ok := f.Address()
		if !ok {
			return "", false
		}
		return string(f.FactType) + "|" + f.PrimaryContext() + "|" + merge.AddressKey(*addr), true
	case model.FactTypeIncome:
		income, ok := f.Income()
		if !ok {
			return "", false
		}
		return string(f.FactType) + "|" + merge.IncomeKey(*income), true
	case model.FactTypeSSN:
		s, ok := f.StringValue()
		if !ok {
			return "", false
		}
		return merge.IdentifierKey(model.IdentifierTypeSSN, s), true
	case model.FactTypeLoanNumber, model.FactTypeEmployerName:
		s, ok := f.StringValue()
		if !ok {
			return "", false
		}
		return string(f.FactType) + "|" + strings.ToUpper(strings.TrimSpace(s)), true
	default:
		return "", false
	}
}
