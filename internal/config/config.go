package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/vvsrt/internal/engine"
	"github.com/mgpai22/vvsrt/internal/segment"
	"github.com/mgpai22/vvsrt/internal/subtitle"
	"github.com/mgpai22/vvsrt/internal/timing"
	"github.com/mgpai22/vvsrt/internal/tokenize"
	"github.com/mgpai22/vvsrt/internal/translate"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the complete conversion configuration
type Config struct {
	Segment   SegmentConfig   `yaml:"segment" toml:"segment"`
	Timing    TimingConfig    `yaml:"timing" toml:"timing"`
	Tokenizer string          `yaml:"tokenizer" toml:"tokenizer"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
	Translate TranslateConfig `yaml:"translate" toml:"translate"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Workers   int             `yaml:"workers" toml:"workers"`
}

// SegmentConfig contains line budget parameters
type SegmentConfig struct {
	MaxChars       int    `yaml:"max_chars" toml:"max_chars"`
	MaxLines       int    `yaml:"max_lines" toml:"max_lines"`
	MinLineLength  int    `yaml:"min_line_length" toml:"min_line_length"`
	ExemptEmotion  bool   `yaml:"exempt_emotion" toml:"exempt_emotion"`
	EmotionPattern string `yaml:"emotion_pattern" toml:"emotion_pattern"`
	RequireText    bool   `yaml:"require_text" toml:"require_text"`
}

// TimingConfig contains duration overrides. Zero keeps the project's value.
type TimingConfig struct {
	SpeedScale       float64  `yaml:"speed_scale" toml:"speed_scale"`
	PauseLengthScale float64  `yaml:"pause_length_scale" toml:"pause_length_scale"`
	PauseLength      *float64 `yaml:"pause_length" toml:"pause_length"`
	FrameAccurate    bool     `yaml:"frame_accurate" toml:"frame_accurate"`
}

// OutputConfig contains subtitle output settings
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format"`
	Language string `yaml:"language" toml:"language"`
}

// TranslateConfig contains optional translation settings
type TranslateConfig struct {
	Provider        string `yaml:"provider" toml:"provider"`
	TargetLanguage  string `yaml:"target_language" toml:"target_language"`
	InputLanguage   string `yaml:"input_language" toml:"input_language"`
	Model           string `yaml:"model" toml:"model"`
	APIKey          string `yaml:"api_key" toml:"api_key"`
	Prompt          string `yaml:"prompt" toml:"prompt"`
	BatchSize       int    `yaml:"batch_size" toml:"batch_size"`
	Concurrency     int    `yaml:"concurrency" toml:"concurrency"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min" toml:"rate_limit_per_min"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Segment: SegmentConfig{
			MaxChars:       segment.DefaultMaxChars,
			MaxLines:       segment.DefaultMaxLines,
			MinLineLength:  segment.DefaultMinLineLength,
			EmotionPattern: segment.DefaultEmotionPattern,
		},
		Tokenizer: tokenize.ModeKagome,
		Output: OutputConfig{
			Format:   string(subtitle.FormatSRT),
			Language: "ja",
		},
		Translate: TranslateConfig{
			Provider:    string(translate.ProviderGemini),
			BatchSize:   translate.DefaultBatchSize,
			Concurrency: translate.DefaultConcurrency,
		},
		Logging: LoggingConfig{Level: "info"},
		Workers: engine.DefaultWorkers,
	}
}

// Load reads the configuration file and merges it over the defaults. Files
// ending in .toml are read as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	if err := unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.SegmentOptions().Validate(); err != nil {
		return fmt.Errorf("segment config: %w", err)
	}

	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing config: %w", err)
	}

	switch strings.ToLower(c.Tokenizer) {
	case tokenize.ModeKagome, tokenize.ModeSimple, tokenize.ModeNone:
	default:
		return fmt.Errorf("tokenizer must be kagome, simple or none, got %q", c.Tokenizer)
	}

	if _, err := subtitle.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Translate.Validate(); err != nil {
		return fmt.Errorf("translate config: %w", err)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	return nil
}

// Validate validates timing overrides
func (t *TimingConfig) Validate() error {
	if t.SpeedScale < 0 {
		return fmt.Errorf("speed_scale must be positive, got %f", t.SpeedScale)
	}
	if t.PauseLengthScale < 0 {
		return fmt.Errorf("pause_length_scale must be positive, got %f", t.PauseLengthScale)
	}
	if t.PauseLength != nil && *t.PauseLength < 0 {
		return fmt.Errorf("pause_length must not be negative, got %f", *t.PauseLength)
	}
	return nil
}

// Validate validates translation settings. An empty target language
// disables translation.
func (t *TranslateConfig) Validate() error {
	if t.TargetLanguage == "" {
		return nil
	}

	switch translate.Provider(t.Provider) {
	case translate.ProviderGemini, translate.ProviderOpenAI, translate.ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider %q", t.Provider)
	}

	if t.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", t.BatchSize)
	}
	if t.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", t.Concurrency)
	}
	if t.RateLimitPerMin < 0 {
		return fmt.Errorf("rate_limit_per_min must not be negative, got %d", t.RateLimitPerMin)
	}
	return nil
}

// SegmentOptions converts the segment section into segmenter options.
func (c *Config) SegmentOptions() segment.Options {
	return segment.Options{
		MaxChars:       c.Segment.MaxChars,
		MaxLines:       c.Segment.MaxLines,
		MinLineLength:  c.Segment.MinLineLength,
		ExemptEmotion:  c.Segment.ExemptEmotion,
		EmotionPattern: c.Segment.EmotionPattern,
		RequireText:    c.Segment.RequireText,
	}
}

// TimingOptions converts the timing section into duration options.
func (c *Config) TimingOptions() timing.Options {
	return timing.Options{
		SpeedScale:       c.Timing.SpeedScale,
		PauseLengthScale: c.Timing.PauseLengthScale,
		PauseLength:      c.Timing.PauseLength,
		FrameAccurate:    c.Timing.FrameAccurate,
	}
}

// TranslateOptions converts the translate section into translator options.
func (c *Config) TranslateOptions() translate.Options {
	return translate.Options{
		InputLanguage:   c.Translate.InputLanguage,
		TargetLanguage:  c.Translate.TargetLanguage,
		Model:           c.Translate.Model,
		Prompt:          c.Translate.Prompt,
		BatchSize:       c.Translate.BatchSize,
		Concurrency:     c.Translate.Concurrency,
		RateLimitPerMin: c.Translate.RateLimitPerMin,
	}
}

// EngineOptions gathers everything the converter needs. The format must
// have passed Validate.
func (c *Config) EngineOptions() engine.Options {
	format, _ := subtitle.ParseFormat(c.Output.Format)
	return engine.Options{
		Segment:  c.SegmentOptions(),
		Timing:   c.TimingOptions(),
		Format:   format,
		Language: c.Output.Language,
		Workers:  c.Workers,
	}
}
