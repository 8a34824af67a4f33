package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultWeight applies to evidence whose source context is absent or not in
// the table.
const DefaultWeight = 0.5

// Policy maps an evidence source context tag to a numeric trust weight.
// Pure data; safe for concurrent use after construction.
type Policy struct {
	weights       map[string]float64
	defaultWeight float64
}

// New builds a policy from the shipped table, with optional overrides merged
// on top. A nil overrides map keeps the shipped table as-is.
func New(overrides map[string]float64, defaultWeight float64) *Policy {
	weights := make(map[string]float64, len(shippedWeights)+len(overrides))
	for ctx, w := range shippedWeights {
		weights[ctx] = w
	}
	for ctx, w := range overrides {
		weights[ctx] = w
	}
	if defaultWeight <= 0 {
		defaultWeight = DefaultWeight
	}
	return &Policy{weights: weights, defaultWeight: defaultWeight}
}

// Default returns the shipped policy with no overrides.
func Default() *Policy {
	return New(nil, DefaultWeight)
}

// Weight returns the configured weight for a context tag, or the default for
// "" and unrecognized tags.
func (p *Policy) Weight(context string) float64 {
	if context == "" {
		return p.defaultWeight
	}
	if w, ok := p.weights[context]; ok {
		return w
	}
	return p.defaultWeight
}

// weightsFile is the on-disk override format.
type weightsFile struct {
	Default float64            `yaml:"default"`
	Weights map[string]float64 `yaml:"weights"`
}

// LoadFile builds a policy from a YAML overrides file merged over the shipped
// table.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}

	var wf weightsFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}

	def := wf.Default
	if def <= 0 {
		def = DefaultWeight
	}
	return New(wf.Weights, def), nil
}
