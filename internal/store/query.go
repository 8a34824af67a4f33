package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pvasilyev/factfuse/internal/cache"
	"github.com/pvasilyev/factfuse/internal/merge"
	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/resolve"
)

// MergedApplication is the read-time view of one application across all
// documents.
type MergedApplication struct {
	ApplicationRef  string                   `json:"application_ref"`
	LoanNumber      string                   `json:"loan_number"`
	PropertyAddress *model.AddressValue      `json:"property_address,omitempty"`
	Parties         []model.Party            `json:"parties,omitempty"`
	Identifiers     []model.MergedIdentifier `json:"identifiers,omitempty"`
	Evidence        []model.Evidence         `json:"evidence,omitempty"`
}

// QueryService is the read side: it loads stored extractions, runs the merge
// engine over the snapshot, and caches the rendered record.
type QueryService struct {
	repo   Repository
	merger *merge.Engine
	cache  cache.Cache
	ttl    time.Duration
}

// NewQueryService wires the read path. A nil cache disables caching.
func NewQueryService(repo Repository, merger *merge.Engine, c cache.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: repo, merger: merger, cache: c, ttl: ttl}
}

// Borrower returns the merged record for a borrower, addressed by either the
// ref or the raw full name. Returns nil when nothing is stored for them.
func (s *QueryService) Borrower(ctx context.Context, nameOrRef string) (*model.MergedBorrower, error) {
	ref := resolve.BorrowerRef(nameOrRef)
	key := cache.BorrowerKey(ref)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var merged model.MergedBorrower
			if err := json.Unmarshal(data, &merged); err == nil {
				return &merged, nil
			}
			// A stale or corrupt entry falls through to recomputation.
			_ = s.cache.Delete(key)
		}
	}

	extractions, err := s.repo.ListBorrowerExtractions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("loading borrower %s: %w", ref, err)
	}

	merged := s.merger.MergeBorrower(extractions)
	if merged == nil {
		return nil, nil
	}

	if s.cache != nil {
		if data, err := json.Marshal(merged); err == nil {
			_ = s.cache.Set(key, data, s.ttl)
		}
	}
	return merged, nil
}

// Application returns the merged record for an application ref. Returns nil
// when nothing is stored under it.
func (s *QueryService) Application(ctx context.Context, applicationRef string) (*MergedApplication, error) {
	key := cache.ApplicationKey(applicationRef)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var merged MergedApplication
			if err := json.Unmarshal(data, &merged); err == nil {
				return &merged, nil
			}
			_ = s.cache.Delete(key)
		}
	}

	extractions, err := s.repo.ListApplicationExtractions(ctx, applicationRef)
	if err != nil {
		return nil, fmt.Errorf("loading application %s: %w", applicationRef, err)
	}
	if len(extractions) == 0 {
		return nil, nil
	}

	merged := s.mergeApplication(extractions)

	if s.cache != nil {
		if data, err := json.Marshal(merged); err == nil {
			_ = s.cache.Set(key, data, s.ttl)
		}
	}
	return merged, nil
}

// mergeApplication folds per-document application extractions into one view.
// Parties union by borrower ref, first appearance wins; identifiers go
// through the merge engine; the first property address seen is kept.
func (s *QueryService) mergeApplication(extractions []model.ApplicationExtraction) *MergedApplication {
	out := &MergedApplication{
		ApplicationRef: extractions[0].ApplicationRef,
		LoanNumber:     extractions[0].LoanNumber,
	}

	seenParty := make(map[string]bool)
	var identifiers []model.AttributedIdentifier
	for _, ex := range extractions {
		if out.PropertyAddress == nil && ex.PropertyAddress != nil {
			addr := *ex.PropertyAddress
			out.PropertyAddress = &addr
		}
		for _, p := range ex.Parties {
			if seenParty[p.BorrowerRef] {
				continue
			}
			seenParty[p.BorrowerRef] = true
			out.Parties = append(out.Parties, p)
		}
		identifiers = append(identifiers, ex.Identifiers...)
		out.Evidence = append(out.Evidence, ex.Evidence...)
	}
	out.Identifiers = s.merger.MergeIdentifiers(identifiers)

	return out
}

// Refs returns the distinct borrower and application refs in the store.
func (s *QueryService) Refs(ctx context.Context) (borrowers, applications []string, err error) {
	borrowers, err = s.repo.ListBorrowerRefs(ctx)
	if err != nil {
		return nil, nil, err
	}
	applications, err = s.repo.ListApplicationRefs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return borrowers, applications, nil
}

// Invalidate drops cached records for a borrower and the given applications.
// The pipeline calls this after persisting a document.
func (s *QueryService) Invalidate(borrowerRefs, applicationRefs []string) {
	if s.cache == nil {
		return
	}
	for _, ref := range borrowerRefs {
		_ = s.cache.Delete(cache.BorrowerKey(ref))
	}
	for _, ref := range applicationRefs {
		_ = s.cache.Delete(cache.ApplicationKey(ref))
	}
}
