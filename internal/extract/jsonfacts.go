package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pvasilyev/factfuse/internal/model"
)

// LoadBatch reads a fact envelope from a JSON file: the primary inbound
// surface when an upstream extraction service has already produced facts.
func LoadBatch(path string) (*model.FactBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open facts file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeBatch(f)
}

// DecodeBatch decodes a fact envelope from a reader.
func DecodeBatch(r io.Reader) (*model.FactBatch, error) {
	var batch model.FactBatch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode fact batch: %w", err)
	}
	if batch.Meta.DocumentID == "" {
		return nil, fmt.Errorf("fact batch is missing meta.document_id")
	}
	return &batch, nil
}

// JSONExtractor treats a document's text as an already-extracted fact
// envelope. It is the registry fallback: document types without a dedicated
// extractor still flow through the pipeline when facts arrive pre-extracted.
type JSONExtractor struct{}

// NewJSONExtractor creates a passthrough extractor.
func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{}
}

// Name returns the extractor name.
func (e *JSONExtractor) Name() string {
	return "json-passthrough"
}

// DocumentTypes returns nil: the passthrough claims no type and serves as
// fallback only.
func (e *JSONExtractor) DocumentTypes() []model.DocumentType {
	return nil
}

// ExtractFacts decodes the embedded envelope and dedupes repeats.
func (e *JSONExtractor) ExtractFacts(_ context.Context, doc model.Document) ([]model.Fact, error) {
	batch, err := DecodeBatch(strings.NewReader(doc.Text))
	if err != nil {
		return nil, err
	}
	return DedupeFacts(batch.Facts), nil
}
