// Package pipeline orchestrates the document flow: decode input, extract
// facts, attribute them, persist the result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pvasilyev/factfuse/internal/attribute"
	"github.com/pvasilyev/factfuse/internal/extract"
	"github.com/pvasilyev/factfuse/internal/llm"
	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
	"github.com/pvasilyev/factfuse/internal/store"
)

// Pipeline orchestrates the complete attribution flow for one document.
type Pipeline struct {
	registry   *extract.Registry
	attributor *attribute.Engine
	repo       store.Repository
	renderer   *Renderer
	logger     *slog.Logger
	config     *model.Config
}

// NewPipeline wires a pipeline from configuration. The repository may be nil
// for render-only runs.
func NewPipeline(cfg *model.Config, logger *slog.Logger, repo store.Repository) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	pol, err := BuildPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	var extractors []extract.Extractor
	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			logger.Warn("llm provider unavailable, raw documents will not extract", "error", err)
		} else if provider != nil {
			extractors = append(extractors, extract.NewLLMExtractor(provider))
		}
	}

	return &Pipeline{
		registry:   extract.NewRegistry(extractors, extract.NewJSONExtractor()),
		attributor: attribute.NewEngine(pol),
		repo:       repo,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		logger:     logger,
		config:     cfg,
	}, nil
}

// BuildPolicy resolves the weight policy from configuration. A weights file
// takes precedence over inline overrides.
func BuildPolicy(cfg model.PolicyConfig) (*policy.Policy, error) {
	if cfg.WeightsFile != "" {
		pol, err := policy.LoadFile(cfg.WeightsFile)
		if err != nil {
			return nil, fmt.Errorf("loading weights file: %w", err)
		}
		return pol, nil
	}
	return policy.New(cfg.Weights, cfg.DefaultWeight), nil
}

// inputEnvelope sniffs which inbound shape a file carries.
type inputEnvelope struct {
	Meta  model.DocumentMeta `json:"meta"`
	Facts json.RawMessage    `json:"facts"`
	Text  string             `json:"text"`
}

// ProcessFile attributes one input file. Files carrying a "facts" array are
// treated as pre-extracted envelopes; files carrying "text" go through the
// extractor registry.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.AttributionReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var env inputEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if env.Meta.DocumentID == "" {
		return nil, fmt.Errorf("%s: missing meta.document_id", path)
	}

	if env.Facts != nil {
		var facts []model.Fact
		if err := json.Unmarshal(env.Facts, &facts); err != nil {
			return nil, fmt.Errorf("decoding facts in %s: %w", path, err)
		}
		return p.ProcessBatch(ctx, &model.FactBatch{Meta: env.Meta, Facts: facts})
	}

	return p.ProcessDocument(ctx, model.Document{Meta: env.Meta, Text: env.Text})
}

// ProcessDocument extracts facts from a raw document via the registry, then
// attributes and persists them.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc model.Document) (*model.AttributionReport, error) {
	extractor := p.registry.ForType(doc.Meta.DocumentType)
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for document type %q", doc.Meta.DocumentType)
	}

	p.logger.Debug("extracting facts",
		"document_id", doc.Meta.DocumentID,
		"document_type", doc.Meta.DocumentType,
		"extractor", extractor.Name())

	facts, err := extractor.ExtractFacts(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extracting facts from %s: %w", doc.Meta.DocumentID, err)
	}

	return p.ProcessBatch(ctx, &model.FactBatch{Meta: doc.Meta, Facts: facts})
}

// ProcessBatch attributes an already-extracted fact batch and persists the
// result. Attribution warnings are logged and carried on the report, never
// fatal.
func (p *Pipeline) ProcessBatch(ctx context.Context, batch *model.FactBatch) (*model.AttributionReport, error) {
	facts := extract.DedupeFacts(batch.Facts)
	if facts == nil {
		facts = []model.Fact{}
	}

	result, err := p.attributor.Attribute(facts, batch.Meta)
	if err != nil {
		return nil, fmt.Errorf("attributing %s: %w", batch.Meta.DocumentID, err)
	}

	for _, w := range result.Warnings {
		p.logger.Warn("attribution warning",
			"document_id", batch.Meta.DocumentID,
			"code", w.Code,
			"fact_index", w.FactIndex,
			"message", w.Message)
	}

	report := &model.AttributionReport{
		Meta:         batch.Meta,
		ProcessedAt:  time.Now().UTC(),
		FactCount:    len(facts),
		Borrowers:    result.Borrowers,
		Applications: result.Applications,
		Warnings:     result.Warnings,
	}

	if p.repo != nil {
		if err := store.SaveReport(ctx, p.repo, report); err != nil {
			return nil, fmt.Errorf("persisting %s: %w", batch.Meta.DocumentID, err)
		}
		p.logger.Info("document attributed",
			"document_id", batch.Meta.DocumentID,
			"facts", report.FactCount,
			"borrowers", len(report.Borrowers),
			"applications", len(report.Applications),
			"warnings", len(report.Warnings))
	}

	return report, nil
}

// RenderReport writes the report to the requested outputs and prints a
// summary to stdout.
func (p *Pipeline) RenderReport(report *model.AttributionReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

// Renderer exposes the pipeline's renderer for callers that render merged
// records directly.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
