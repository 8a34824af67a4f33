package model

import "time"

// Config is the full runtime configuration, loadable from
// ~/.factfuse/config.yaml with FACTFUSE_* env overrides.
type Config struct {
	Policy      PolicyConfig      `yaml:"policy" mapstructure:"policy"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// PolicyConfig tunes the evidence weight table without touching the engine.
type PolicyConfig struct {
	// WeightsFile points at a YAML file overriding the shipped weight table.
	WeightsFile string `yaml:"weights_file,omitempty" mapstructure:"weights_file"`

	// Weights are inline overrides merged over the shipped table.
	Weights map[string]float64 `yaml:"weights,omitempty" mapstructure:"weights"`

	// DefaultWeight applies to absent or unrecognized context tags.
	DefaultWeight float64 `yaml:"default_weight" mapstructure:"default_weight"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`

	// DSN is the postgres connection string (ignored for memory).
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// CacheConfig controls the read-side merged-record cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir        string        `yaml:"dir,omitempty" mapstructure:"dir"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// LLMConfig configures the optional LLM-backed document extractor.
type LLMConfig struct {
	Provider  string `yaml:"provider,omitempty" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model     string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // env only, never persisted
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig sizes the batch worker pool and ingest throttle.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`

	// IngestRate throttles documents/second per source system during batch
	// runs, protecting upstream extraction quotas. 0 disables the throttle.
	IngestRate  float64 `yaml:"ingest_rate" mapstructure:"ingest_rate"`
	IngestBurst int     `yaml:"ingest_burst" mapstructure:"ingest_burst"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults, the lowest layer of the
// configuration hierarchy.
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			DefaultWeight: 0.5,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1024,
		},
		LLM: LLMConfig{
			Timeout:   60,
			MaxTokens: 4096,
		},
		Concurrency: ConcurrencyConfig{
			Workers:     4,
			IngestRate:  0,
			IngestBurst: 5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
