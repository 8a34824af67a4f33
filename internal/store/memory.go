package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pvasilyev/factfuse/internal/model"
)

// MemoryRepository keeps extractions in process memory. It backs single-run
// CLI invocations and tests; nothing survives the process.
type MemoryRepository struct {
	mu           sync.RWMutex
	borrowers    map[string]map[string]model.BorrowerExtraction    // ref -> documentID -> extraction
	applications map[string]map[string]model.ApplicationExtraction // ref -> documentID -> extraction
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		borrowers:    make(map[string]map[string]model.BorrowerExtraction),
		applications: make(map[string]map[string]model.ApplicationExtraction),
	}
}

func (r *MemoryRepository) SaveBorrowerExtraction(ctx context.Context, documentID string, extraction model.BorrowerExtraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, ok := r.borrowers[extraction.BorrowerRef]
	if !ok {
		docs = make(map[string]model.BorrowerExtraction)
		r.borrowers[extraction.BorrowerRef] = docs
	}
	docs[documentID] = extraction
	return nil
}

func (r *MemoryRepository) SaveApplicationExtraction(ctx context.Context, documentID string, extraction model.ApplicationExtraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, ok := r.applications[extraction.ApplicationRef]
	if !ok {
		docs = make(map[string]model.ApplicationExtraction)
		r.applications[extraction.ApplicationRef] = docs
	}
	docs[documentID] = extraction
	return nil
}

func (r *MemoryRepository) ListBorrowerExtractions(ctx context.Context, borrowerRef string) ([]model.BorrowerExtraction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := r.borrowers[borrowerRef]
	out := make([]model.BorrowerExtraction, 0, len(docs))
	for _, id := range sortedKeys(docs) {
		out = append(out, docs[id])
	}
	return out, nil
}

func (r *MemoryRepository) ListApplicationExtractions(ctx context.Context, applicationRef string) ([]model.ApplicationExtraction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := r.applications[applicationRef]
	out := make([]model.ApplicationExtraction, 0, len(docs))
	for _, id := range sortedKeys(docs) {
		out = append(out, docs[id])
	}
	return out, nil
}

func (r *MemoryRepository) ListBorrowerRefs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.borrowers), nil
}

func (r *MemoryRepository) ListApplicationRefs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.applications), nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
