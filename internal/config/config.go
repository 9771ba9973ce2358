package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all pipeline configuration.
type Config struct {
	Language LanguageConfig
	Detector DetectorConfig
	Evidence EvidenceConfig
	Producer ProducerConfig
	Batch    BatchConfig
	Seed     int64 `mapstructure:"seed"`
}

// LanguageConfig holds language identification settings.
type LanguageConfig struct {
	Default       string  `mapstructure:"default"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// DetectorConfig holds skill cue detection coefficients. The boost values are
// tunable, not load-bearing; defaults match the shipped scoring tables.
type DetectorConfig struct {
	BaseScore          float64 `mapstructure:"base_score"`
	CueScoreStep       float64 `mapstructure:"cue_score_step"`
	BaseConfidence     float64 `mapstructure:"base_confidence"`
	CueConfidenceStep  float64 `mapstructure:"cue_confidence_step"`
	MaxConfidence      float64 `mapstructure:"max_confidence"`
	StudentBoost       float64 `mapstructure:"student_boost"`
	DemonstrationBoost float64 `mapstructure:"demonstration_boost"`
	AggConfidenceBase  float64 `mapstructure:"agg_confidence_base"`
	AggConfidenceStep  float64 `mapstructure:"agg_confidence_step"`
	MaxEvidencePerCue  int     `mapstructure:"max_evidence_per_cue"`
}

// EvidenceConfig holds evidence location and ranking settings.
type EvidenceConfig struct {
	WordsPerPage    int `mapstructure:"words_per_page"`
	ContextChars    int `mapstructure:"context_chars"`
	MaxSpans        int `mapstructure:"max_spans"`
	MaxSpansPerTop  int `mapstructure:"max_spans_per_top"`
	MaxPerSkillBulk int `mapstructure:"max_per_skill_bulk"`
}

// ProducerProviderConfig holds settings for a single evidence producer
// provider. Scoring settings ride along so the rules provider scores with the
// same coefficients as the rest of the pipeline.
type ProducerProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Detector DetectorConfig
	Evidence EvidenceConfig
	Seed     int64
}

// ProducerConfig selects and configures the evidence producer path.
type ProducerConfig struct {
	// Provider selects the evidence producer: "rules" (deterministic, default)
	// or "openai" (LLM-backed alternate path).
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ProviderConfig returns the producer settings as a provider config, carrying
// the detector and evidence coefficients alongside the provider selection.
func (c *Config) ProviderConfig() *ProducerProviderConfig {
	return &ProducerProviderConfig{
		Provider:     c.Producer.Provider,
		APIKey:       c.Producer.APIKey,
		DefaultModel: c.Producer.DefaultModel,
		MaxRetries:   c.Producer.MaxRetries,
		TimeoutSecs:  c.Producer.TimeoutSecs,
		Detector:     c.Detector,
		Evidence:     c.Evidence,
		Seed:         c.Seed,
	}
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the SKILLSCOPE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SKILLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Language defaults
	v.SetDefault("language.default", "en")
	v.SetDefault("language.min_confidence", 0.7)

	// Detector defaults
	v.SetDefault("detector.base_score", 0.5)
	v.SetDefault("detector.cue_score_step", 0.15)
	v.SetDefault("detector.base_confidence", 0.6)
	v.SetDefault("detector.cue_confidence_step", 0.1)
	v.SetDefault("detector.max_confidence", 0.95)
	v.SetDefault("detector.student_boost", 1.1)
	v.SetDefault("detector.demonstration_boost", 0.02)
	v.SetDefault("detector.agg_confidence_base", 0.7)
	v.SetDefault("detector.agg_confidence_step", 0.05)
	v.SetDefault("detector.max_evidence_per_cue", 5)

	// Evidence defaults
	v.SetDefault("evidence.words_per_page", 500)
	v.SetDefault("evidence.context_chars", 100)
	v.SetDefault("evidence.max_spans", 5)
	v.SetDefault("evidence.max_spans_per_top", 3)
	v.SetDefault("evidence.max_per_skill_bulk", 3)

	// Producer defaults
	v.SetDefault("producer.provider", "rules")
	v.SetDefault("producer.api_key", "")
	v.SetDefault("producer.default_model", "gpt-4o")
	v.SetDefault("producer.max_retries", 2)
	v.SetDefault("producer.timeout_secs", 120)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)

	v.SetDefault("seed", 42)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting the environment.
func Default() *Config {
	return &Config{
		Language: LanguageConfig{Default: "en", MinConfidence: 0.7},
		Detector: DetectorConfig{
			BaseScore:          0.5,
			CueScoreStep:       0.15,
			BaseConfidence:     0.6,
			CueConfidenceStep:  0.1,
			MaxConfidence:      0.95,
			StudentBoost:       1.1,
			DemonstrationBoost: 0.02,
			AggConfidenceBase:  0.7,
			AggConfidenceStep:  0.05,
			MaxEvidencePerCue:  5,
		},
		Evidence: EvidenceConfig{
			WordsPerPage:    500,
			ContextChars:    100,
			MaxSpans:        5,
			MaxSpansPerTop:  3,
			MaxPerSkillBulk: 3,
		},
		Producer: ProducerConfig{
			Provider:     "rules",
			DefaultModel: "gpt-4o",
			MaxRetries:   2,
			TimeoutSecs:  120,
		},
		Batch: BatchConfig{Concurrency: 4},
		Seed:  42,
	}
}
