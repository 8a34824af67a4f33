// Package store persists per-document extractions and serves them back to
// the read side. Documents are the unit of write: re-ingesting a document
// replaces its earlier extractions instead of stacking duplicates.
package store

import (
	"context"

	"github.com/pvasilyev/factfuse/internal/model"
)

// Repository is the persistence boundary for attribution output.
type Repository interface {
	// SaveBorrowerExtraction upserts one borrower's extraction for a document.
	SaveBorrowerExtraction(ctx context.Context, documentID string, extraction model.BorrowerExtraction) error

	// SaveApplicationExtraction upserts one application's extraction for a document.
	SaveApplicationExtraction(ctx context.Context, documentID string, extraction model.ApplicationExtraction) error

	// ListBorrowerExtractions returns every stored extraction for a borrower
	// ref across all documents.
	ListBorrowerExtractions(ctx context.Context, borrowerRef string) ([]model.BorrowerExtraction, error)

	// ListApplicationExtractions returns every stored extraction for an
	// application ref across all documents.
	ListApplicationExtractions(ctx context.Context, applicationRef string) ([]model.ApplicationExtraction, error)

	// ListBorrowerRefs returns the distinct borrower refs in the store.
	ListBorrowerRefs(ctx context.Context) ([]string, error)

	// ListApplicationRefs returns the distinct application refs in the store.
	ListApplicationRefs(ctx context.Context) ([]string, error)

	Close() error
}

// SaveReport persists every extraction in an attribution report.
func SaveReport(ctx context.Context, repo Repository, report *model.AttributionReport) error {
	for _, b := range report.Borrowers {
		if err := repo.SaveBorrowerExtraction(ctx, report.Meta.DocumentID, b); err != nil {
			return err
		}
	}
	for _, a := range report.Applications {
		if err := repo.SaveApplicationExtraction(ctx, report.Meta.DocumentID, a); err != nil {
			return err
		}
	}
	return nil
}
