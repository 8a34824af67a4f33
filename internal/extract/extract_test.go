package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvasilyev/factfuse/internal/llm"
	"github.com/pvasilyev/factfuse/internal/model"
)

const envelope = `{
	"meta": {
		"document_id": "doc-42",
		"source_filename": "w2-2023.pdf",
		"document_type": "w2"
	},
	"facts": [
		{
			"fact_type": "ssn",
			"value": "999-40-5000",
			"evidence": [
				{"document_id": "doc-42", "source_filename": "w2-2023.pdf", "page_number": 1,
				 "quote": "Employee SSN: 999-40-5000", "source_context": "w2_employee_ssn"}
			],
			"names_in_proximity": [
				{"full_name": "John Homeowner", "proximity_score": 3,
				 "evidence": [{"document_id": "doc-42", "source_filename": "w2-2023.pdf",
				               "page_number": 1, "source_context": "w2_employee_name"}]}
			]
		},
		{
			"fact_type": "income",
			"value": {"amount": 85000, "currency": "USD", "source_type": "w2",
			          "employer": "Initech LLC", "period": {"year": 2023}},
			"evidence": [
				{"document_id": "doc-42", "source_filename": "w2-2023.pdf", "page_number": 1,
				 "quote": "Box 1: 85,000.00", "source_context": "w2_wages_box"}
			],
			"names_in_proximity": [
				{"full_name": "John Homeowner", "proximity_score": 2,
				 "evidence": [{"document_id": "doc-42", "source_filename": "w2-2023.pdf",
				               "page_number": 1, "source_context": "w2_employee_name"}]}
			]
		}
	]
}`

func TestDecodeBatch(t *testing.T) {
	batch, err := DecodeBatch(strings.NewReader(envelope))
	require.NoError(t, err)

	assert.Equal(t, "doc-42", batch.Meta.DocumentID)
	assert.Equal(t, model.DocumentTypeW2, batch.Meta.DocumentType)
	require.Len(t, batch.Facts, 2)

	ssn, ok := batch.Facts[0].StringValue()
	require.True(t, ok, "ssn value should decode as string")
	assert.Equal(t, "999-40-5000", ssn)

	income, ok := batch.Facts[1].Income()
	require.True(t, ok, "income value should decode as IncomeValue")
	assert.Equal(t, 85000.0, income.Amount)
	assert.Equal(t, 2023, income.Period.Year)
}

func TestDecodeBatch_MissingDocumentID(t *testing.T) {
	_, err := DecodeBatch(strings.NewReader(`{"meta": {}, "facts": []}`))
	require.Error(t, err)
}

func TestDecodeBatch_WrongValueShapeLeavesNil(t *testing.T) {
	// Non-numeric income amount: the fact decodes, but its value branch is
	// nil so attribution can drop it individually.
	raw := `{
		"meta": {"document_id": "doc-1", "source_filename": "f.pdf"},
		"facts": [
			{"fact_type": "income", "value": {"amount": "eighty"}, "evidence": []}
		]
	}`
	batch, err := DecodeBatch(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, batch.Facts, 1)
	assert.Nil(t, batch.Facts[0].Value)
}

func TestDedupeFacts_MergesRepeats(t *testing.T) {
	ev := func(page int) model.Evidence {
		return model.Evidence{DocumentID: "doc-1", SourceFilename: "p.pdf", PageNumber: page,
			SourceContext: "paystub_employee_info_block"}
	}
	addr := &model.AddressValue{Street1: "12 Oak St", City: "Arlington", State: "VA", Zip: "22201"}

	facts := []model.Fact{
		{
			FactType: model.FactTypeAddress,
			Value:    addr,
			Evidence: []model.Evidence{ev(1)},
			NamesInProximity: []model.NameInProximity{
				{FullName: "Pat Employee", ProximityScore: 3, Evidence: []model.Evidence{ev(1)}},
			},
		},
		{
			FactType: model.FactTypeAddress,
			Value:    addr,
			Evidence: []model.Evidence{ev(2)},
			NamesInProximity: []model.NameInProximity{
				{FullName: "pat employee", ProximityScore: 2, Evidence: []model.Evidence{ev(2)}},
			},
		},
	}

	out := DedupeFacts(facts)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Evidence, 2, "evidence concatenated across repeats")
	require.Len(t, out[0].NamesInProximity, 1, "name variants merged by normalized name")
	assert.Equal(t, 3, out[0].NamesInProximity[0].ProximityScore, "highest score kept")
}

func TestDedupeFacts_EmployerAndEmployeeAddressesStaySeparate(t *testing.T) {
	addr := &model.AddressValue{Street1: "12 Oak St", City: "Arlington", State: "VA", Zip: "22201"}
	facts := []model.Fact{
		{
			FactType: model.FactTypeAddress,
			Value:    addr,
			Evidence: []model.Evidence{{DocumentID: "d", SourceFilename: "f", PageNumber: 1,
				SourceContext: "paystub_employee_info_block"}},
		},
		{
			FactType: model.FactTypeAddress,
			Value:    addr,
			Evidence: []model.Evidence{{DocumentID: "d", SourceFilename: "f", PageNumber: 1,
				SourceContext: "paystub_header_employer_block"}},
		},
	}

	out := DedupeFacts(facts)
	assert.Len(t, out, 2, "the exclusion rule depends on context, so contexts must not merge")
}

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text, Model: "fake-1"}, nil
}
func (f *fakeProvider) IsAvailable(context.Context) bool { return true }

func TestLLMExtractor_ParsesFencedJSON(t *testing.T) {
	response := "```json\n" + `{
		"facts": [
			{"fact_type": "ssn", "value": "111-22-3333",
			 "evidence": [{"document_id": "WRONG", "source_filename": "WRONG",
			               "page_number": 0, "source_context": "w2_employee_ssn"}],
			 "names_in_proximity": []}
		]
	}` + "\n```"

	ex := NewLLMExtractor(&fakeProvider{text: response})
	facts, err := ex.ExtractFacts(context.Background(), model.Document{
		Meta: model.DocumentMeta{DocumentID: "doc-9", SourceFilename: "w2.pdf",
			DocumentType: model.DocumentTypeW2},
		Text: "irrelevant",
	})
	require.NoError(t, err)
	require.Len(t, facts, 1)

	// Provenance is forced onto the real document.
	require.Len(t, facts[0].Evidence, 1)
	assert.Equal(t, "doc-9", facts[0].Evidence[0].DocumentID)
	assert.Equal(t, "w2.pdf", facts[0].Evidence[0].SourceFilename)
	assert.Equal(t, 1, facts[0].Evidence[0].PageNumber)
}

func TestLLMExtractor_BadJSON(t *testing.T) {
	ex := NewLLMExtractor(&fakeProvider{text: "I could not find any facts."})
	_, err := ex.ExtractFacts(context.Background(), model.Document{
		Meta: model.DocumentMeta{DocumentID: "doc-9", SourceFilename: "w2.pdf"},
	})
	require.Error(t, err)
}

func TestRegistry_Lookup(t *testing.T) {
	llmEx := NewLLMExtractor(&fakeProvider{})
	fallback := NewJSONExtractor()
	registry := NewRegistry([]Extractor{llmEx}, fallback)

	assert.Equal(t, llmEx.Name(), registry.ForType(model.DocumentTypeW2).Name())
	assert.Equal(t, fallback.Name(), registry.ForType(model.DocumentTypeUnknown).Name())
}
