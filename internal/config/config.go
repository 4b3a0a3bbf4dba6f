// Package config loads the YAML configuration shared by the command line tools.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ieee0824/ctcdecode-go/decoder"
	"github.com/ieee0824/ctcdecode-go/internal/logging"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/scorer"
)

// Config is the decode CLI configuration.
type Config struct {
	Labels      string         `yaml:"labels"`
	Decoder     decoder.Config `yaml:"decoder"`
	Scorer      ScorerConfig   `yaml:"scorer"`
	Logging     logging.Config `yaml:"logging"`
	MetricsAddr string         `yaml:"metrics_addr"`
}

// ScorerConfig selects and tunes the language model scorer. Without LMPath
// and TriePath decoding uses the baseline scorer.
type ScorerConfig struct {
	LMPath          string   `yaml:"lm_path"`
	TriePath        string   `yaml:"trie_path"`
	LMWeight        float64  `yaml:"lm_weight"`
	WordWeight      float64  `yaml:"word_weight"`
	ValidWordWeight float64  `yaml:"valid_word_weight"`
	OOVScore        *float64 `yaml:"oov_score"` // nil keeps the model's <unk> or the default
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Labels:  lexicon.DefaultLabels,
		Decoder: decoder.DefaultConfig(),
		Scorer:  ScorerConfig{LMWeight: 1.0},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := cfg.FromString(string(data)); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromString decodes YAML into cfg, keeping values the document omits.
func (cfg *Config) FromString(data string) error {
	if err := yaml.Unmarshal([]byte(data), cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// ToString encodes cfg as YAML.
func (cfg *Config) ToString() string {
	data, _ := yaml.Marshal(cfg)
	return string(data)
}

// Validate checks settings that must agree with each other. Call it again
// after overriding fields.
func (cfg *Config) Validate() error {
	if cfg.Labels == "" {
		return fmt.Errorf("labels must not be empty")
	}
	if (cfg.Scorer.LMPath == "") != (cfg.Scorer.TriePath == "") {
		return fmt.Errorf("scorer.lm_path and scorer.trie_path must be set together")
	}
	return nil
}

// UseLM reports whether a language model scorer is configured.
func (cfg *Config) UseLM() bool { return cfg.Scorer.LMPath != "" }

// Apply copies the configured weights onto s.
func (sc ScorerConfig) Apply(s *scorer.LM) error {
	if err := s.SetLMWeight(sc.LMWeight); err != nil {
		return err
	}
	if err := s.SetWordWeight(sc.WordWeight); err != nil {
		return err
	}
	if err := s.SetValidWordWeight(sc.ValidWordWeight); err != nil {
		return err
	}
	if sc.OOVScore != nil {
		return s.SetOOVScore(*sc.OOVScore)
	}
	return nil
}
