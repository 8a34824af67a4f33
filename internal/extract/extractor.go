// Package extract turns source documents into fact batches. The attribution
// core never knows how a fact was produced; extractors only have to emit the
// declared Fact shape.
package extract

import (
	"context"

	"github.com/pvasilyev/factfuse/internal/model"
)

// Extractor produces facts from one document.
type Extractor interface {
	// Name returns the extractor name.
	Name() string

	// DocumentTypes lists the document types this extractor handles.
	DocumentTypes() []model.DocumentType

	// ExtractFacts extracts the document's facts.
	ExtractFacts(ctx context.Context, doc model.Document) ([]model.Fact, error)
}

// Registry maps document types to extractors. It is built once at startup and
// passed by reference into the pipeline; there is no ambient global registry
// and no mutation after construction.
type Registry struct {
	byType   map[model.DocumentType]Extractor
	fallback Extractor
}

// NewRegistry builds an immutable registry. Later extractors win on document
// type collisions; fallback handles types no extractor claims, and may be nil.
func NewRegistry(extractors []Extractor, fallback Extractor) *Registry {
	byType := make(map[model.DocumentType]Extractor)
	for _, ex := range extractors {
		for _, dt := range ex.DocumentTypes() {
			byType[dt] = ex
		}
	}
	return &Registry{byType: byType, fallback: fallback}
}

// ForType returns the extractor for a document type, or the fallback.
func (r *Registry) ForType(dt model.DocumentType) Extractor {
	if ex, ok := r.byType[dt]; ok {
		return ex
	}
	return r.fallback
}
