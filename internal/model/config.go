package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Match     MatchConfig     `yaml:"match" json:"match"`
	Classify  ClassifyConfig  `yaml:"classify" json:"classify"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Workers   WorkerConfig    `yaml:"workers" json:"workers"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// MatchConfig holds anchor-matcher thresholds and weights.
//
// The thresholds are deliberate choices, not derived constants: fuzzy 0.62
// keeps reworded headings while rejecting coincidental token overlap,
// embedding 0.80 reflects typical cosine ranges of sentence embeddings, and
// hybrid 0.70 sits between the two because it combines weaker evidence.
type MatchConfig struct {
	FuzzyThreshold     float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	EmbeddingThreshold float64 `yaml:"embedding_threshold" json:"embedding_threshold"`
	HybridThreshold    float64 `yaml:"hybrid_threshold" json:"hybrid_threshold"`
	HybridFuzzyWeight  float64 `yaml:"hybrid_fuzzy_weight" json:"hybrid_fuzzy_weight"`
}

// ClassifyConfig holds classifier signal weights
type ClassifyConfig struct {
	MustWeight   int `yaml:"must_weight" json:"must_weight"`
	ShouldWeight int `yaml:"should_weight" json:"should_weight"`
	RegexWeight  int `yaml:"regex_weight" json:"regex_weight"`
}

// EmbeddingConfig configures the external embedding provider
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider" json:"provider"` // "", "openai", "static"
	Model             string  `yaml:"model" json:"model"`
	APIKey            string  `yaml:"-" json:"-"` // From OPENAI_API_KEY, never persisted
	BaseURL           string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	VectorsPath       string  `yaml:"vectors_path,omitempty" json:"vectors_path,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
	BatchSize         int     `yaml:"batch_size" json:"batch_size"`
}

// CacheConfig configures the resolved-signals cache
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// WorkerConfig configures batch concurrency
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// OutputConfig configures CLI output behaviour
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Match: MatchConfig{
			FuzzyThreshold:     0.62,
			EmbeddingThreshold: 0.80,
			HybridThreshold:    0.70,
			HybridFuzzyWeight:  0.5,
		},
		Classify: ClassifyConfig{
			MustWeight:   2,
			ShouldWeight: 1,
			RegexWeight:  2,
		},
		Embedding: EmbeddingConfig{
			Provider:          "",
			Model:             "text-embedding-3-small",
			RequestsPerSecond: 2,
			Burst:             5,
			BatchSize:         64,
		},
		Cache: CacheConfig{
			TTL:             0, // No expiration: signal sets are process-lifetime
			CleanupInterval: 0,
		},
		Workers: WorkerConfig{
			Concurrency: 4,
		},
		Output: OutputConfig{},
	}
}
