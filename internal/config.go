package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ThresholdsConfig struct {
	CostMatrix CostMatrix `yaml:"cost_matrix"`
	Strategies []string   `yaml:"strategies,omitempty"`
}

type EmbeddingConfig struct {
	DirectionMethod      string  `yaml:"direction_method"`
	MinExplainedVariance float64 `yaml:"min_explained_variance"`
	BiasWords            string  `yaml:"bias_words,omitempty"`
	OnlyLower            bool    `yaml:"only_lower"`
	Normalize            bool    `yaml:"normalize"`
}

type Config struct {
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LogLevel   string           `yaml:"log_level,omitempty"`
}

// DefaultCostMatrix rewards true positives and penalizes false positives
// equally.
var DefaultCostMatrix = CostMatrix{{0, -1}, {0, 1}}

func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdsConfig{
			CostMatrix: DefaultCostMatrix,
		},
		Embedding: EmbeddingConfig{
			DirectionMethod:      string(DirectionPCA),
			MinExplainedVariance: FirstPCThreshold,
			OnlyLower:            true,
			Normalize:            true,
		},
		LogLevel: DefaultLogLevel,
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	path := scope.ConfigPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Strategies parses the configured strategy names. None means all.
func (c *Config) Strategies() ([]Strategy, error) {
	out := make([]Strategy, 0, len(c.Thresholds.Strategies))
	for _, name := range c.Thresholds.Strategies {
		st, err := ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// BiasConfig loads the configured word lists, relative to scope, or the
// built-in gender lists.
func (c *Config) BiasConfig(scope Scope) (BiasConfig, error) {
	if c.Embedding.BiasWords == "" {
		return GenderBiasConfig(), nil
	}
	return LoadBiasConfig(resolvePath(scope.Path, c.Embedding.BiasWords))
}
