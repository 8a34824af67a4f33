// Package resolve selects the owning person for a fact from its candidate
// names. It is shared by the attribution engine and by the intra-document
// dedup step of document extractors.
//
// Identity is the normalized full name: exact string normalization only, no
// fuzzy or phonetic matching. Same normalized name means same person; this is
// a documented precision limitation, and any stronger identity resolution
// must be a swappable strategy behind the same BorrowerRef contract.
package resolve

import (
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
)

// Normalize lowercases, trims, and collapses internal whitespace.
func Normalize(fullName string) string {
	return strings.Join(strings.Fields(strings.ToLower(fullName)), " ")
}

// BorrowerRef derives the cross-document identity key for a person.
// It is a pure function of the normalized full name.
func BorrowerRef(fullName string) string {
	return Normalize(fullName)
}

// ChooseBestName selects the single best-supported owner from the candidate
// list: highest proximity score wins; on a tie, the candidate whose first
// evidence entry carries the higher policy weight; remaining ties keep input
// order. Returns nil for an empty list; the caller must then drop the fact
// rather than mis-attribute it.
func ChooseBestName(names []model.NameInProximity, pol *policy.Policy) *model.NameInProximity {
	if len(names) == 0 {
		return nil
	}

	best := &names[0]
	bestWeight := firstEvidenceWeight(best, pol)

	for i := 1; i < len(names); i++ {
		cand := &names[i]
		if cand.ProximityScore < best.ProximityScore {
			continue
		}
		if cand.ProximityScore > best.ProximityScore {
			best = cand
			bestWeight = firstEvidenceWeight(cand, pol)
			continue
		}
		if w := firstEvidenceWeight(cand, pol); w > bestWeight {
			best = cand
			bestWeight = w
		}
	}

	return best
}

// AllQualifyingNames returns every distinct candidate by normalized name,
// keeping the highest proximity score seen per name and concatenating
// evidence across repeats. Used for facts with shared ownership, e.g. loan
// numbers. Output order follows first appearance.
func AllQualifyingNames(names []model.NameInProximity) []model.NameInProximity {
	if len(names) == 0 {
		return nil
	}

	index := make(map[string]int, len(names))
	out := make([]model.NameInProximity, 0, len(names))

	for _, n := range names {
		key := Normalize(n.FullName)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			copied := n
			copied.Evidence = append([]model.Evidence(nil), n.Evidence...)
			out = append(out, copied)
			continue
		}
		out[i].Evidence = append(out[i].Evidence, n.Evidence...)
		if n.ProximityScore > out[i].ProximityScore {
			out[i].ProximityScore = n.ProximityScore
		}
	}

	return out
}

func firstEvidenceWeight(n *model.NameInProximity, pol *policy.Policy) float64 {
	if len(n.Evidence) == 0 {
		return pol.Weight("")
	}
	return pol.Weight(n.Evidence[0].SourceContext)
}
