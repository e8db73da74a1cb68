package model

import "time"

// Config holds the complete attestor configuration
type Config struct {
	Pipeline    PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Similarity  SimilarityConfig  `yaml:"similarity" json:"similarity"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" json:"retrieval"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting" json:"rate_limiting"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// PipelineConfig bounds one analysis invocation
type PipelineConfig struct {
	Deadline    time.Duration `yaml:"deadline" json:"deadline"`         // Whole-pipeline budget
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout"` // Per outbound call
}

// SimilarityConfig tunes the matchers and the internal comparator
type SimilarityConfig struct {
	MaxCompareBytes      int     `yaml:"max_compare_bytes" json:"max_compare_bytes"`
	MinBlockLen          int     `yaml:"min_block_len" json:"min_block_len"`
	DuplicationThreshold float64 `yaml:"duplication_threshold" json:"duplication_threshold"`
	RetainThreshold      float64 `yaml:"retain_threshold" json:"retain_threshold"`
}

// RetrievalConfig configures the cross-submission search
type RetrievalConfig struct {
	K         int    `yaml:"k" json:"k"`                   // Nearest neighbors per unit
	IndexPath string `yaml:"index_path" json:"index_path"` // Local sqlite index ("" = disabled)
	SearchURL string `yaml:"search_url" json:"search_url"` // Remote vector-search service ("" = disabled)
	MinScore  float64 `yaml:"min_score" json:"min_score"`  // Hits below this are dropped
}

// LLMConfig configures the text-generation collaborator
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key,omitempty" json:"-"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig bounds parallelism
type ConcurrencyConfig struct {
	Workers     int `yaml:"workers" json:"workers"`           // Batch submissions in flight
	UnitWorkers int `yaml:"unit_workers" json:"unit_workers"` // Per-unit branches in flight
}

// RateLimitConfig bounds outbound request rates. The default applies
// to every service; per-service overrides (keyed "embed", "search",
// "classify", "elaborate") take precedence, useful when the embedding
// endpoint and the search service tolerate very different loads.
type RateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int                `yaml:"burst_size" json:"burst_size"`
	PerService        map[string]float64 `yaml:"per_service,omitempty" json:"per_service,omitempty"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Deadline:    30 * time.Second,
			CallTimeout: 10 * time.Second,
		},
		Similarity: SimilarityConfig{
			MaxCompareBytes:      50_000,
			MinBlockLen:          24,
			DuplicationThreshold: 0.70,
			RetainThreshold:      0.40,
		},
		Retrieval: RetrievalConfig{
			K:        50,
			MinScore: 0.60,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 1200,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:     4,
			UnitWorkers: 8,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 4,
			BurstSize:         8,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
