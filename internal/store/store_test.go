package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvasilyev/factfuse/internal/model"
)

func borrowerFixture(ref, name, zip string) model.BorrowerExtraction {
	return model.BorrowerExtraction{
		BorrowerRef: ref,
		FullName:    name,
		Zip:         zip,
		Identifiers: []model.AttributedIdentifier{
			{
				Type:  model.IdentifierTypeSSN,
				Value: "999-40-5000",
				Evidence: []model.Evidence{
					{DocumentID: "doc-1", SourceFilename: "w2.pdf", PageNumber: 1, Quote: "SSN 999-40-5000", SourceContext: "w2_employee_ssn"},
				},
			},
		},
	}
}

func TestMemoryRepository_UpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := borrowerFixture("john a smith", "John A Smith", "22201")
	require.NoError(t, repo.SaveBorrowerExtraction(ctx, "doc-1", first))

	updated := first
	updated.Zip = "20190"
	require.NoError(t, repo.SaveBorrowerExtraction(ctx, "doc-1", updated))

	got, err := repo.ListBorrowerExtractions(ctx, "john a smith")
	require.NoError(t, err)
	require.Len(t, got, 1, "re-saving the same document must replace, not append")
	assert.Equal(t, "20190", got[0].Zip)
}

func TestMemoryRepository_ListAcrossDocuments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.SaveBorrowerExtraction(ctx, "doc-2", borrowerFixture("john a smith", "John A Smith", "")))
	require.NoError(t, repo.SaveBorrowerExtraction(ctx, "doc-1", borrowerFixture("john a smith", "JOHN A SMITH", "22201")))
	require.NoError(t, repo.SaveBorrowerExtraction(ctx, "doc-1", borrowerFixture("mary b smith", "Mary B Smith", "")))

	got, err := repo.ListBorrowerExtractions(ctx, "john a smith")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// doc-1 sorts first.
	assert.Equal(t, "22201", got[0].Zip)

	refs, err := repo.ListBorrowerRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"john a smith", "mary b smith"}, refs)
}

func TestMemoryRepository_Applications(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	ex := model.ApplicationExtraction{
		ApplicationRef: "app:1000012345",
		LoanNumber:     "1000012345",
		Parties: []model.Party{
			{BorrowerRef: "john a smith", FullName: "John A Smith", Role: model.PartyRoleBorrower},
		},
	}
	require.NoError(t, repo.SaveApplicationExtraction(ctx, "doc-1", ex))

	got, err := repo.ListApplicationExtractions(ctx, "app:1000012345")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1000012345", got[0].LoanNumber)

	refs, err := repo.ListApplicationRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:1000012345"}, refs)
}

func TestSaveReport_PersistsAllExtractions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	report := &model.AttributionReport{
		Meta: model.DocumentMeta{DocumentID: "doc-1"},
		Borrowers: []model.BorrowerExtraction{
			borrowerFixture("john a smith", "John A Smith", ""),
			borrowerFixture("mary b smith", "Mary B Smith", ""),
		},
		Applications: []model.ApplicationExtraction{
			{ApplicationRef: "app:1000012345", LoanNumber: "1000012345"},
		},
	}
	require.NoError(t, SaveReport(ctx, repo, report))

	borrowers, err := repo.ListBorrowerRefs(ctx)
	require.NoError(t, err)
	assert.Len(t, borrowers, 2)

	apps, err := repo.ListApplicationRefs(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}
