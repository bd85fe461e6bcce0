package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/memory"
)

// CodecsConfig holds the candidate algorithm set.
type CodecsConfig struct {
	// Enabled lists codec names eligible for selection (see
	// core.CodecType.String). Empty means every registered codec.
	Enabled []string `yaml:"enabled"`
}

// SelectorConfig holds strategy-selection configurations.
type SelectorConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MaxCandidates       int     `yaml:"max_candidates"`
}

// ChainConfig holds folding-chain execution configurations.
type ChainConfig struct {
	MaxDepth        int    `yaml:"max_depth"`
	ExecutionBudget string `yaml:"execution_budget"`
}

// LearningConfig holds pattern-memory configurations.
type LearningConfig struct {
	Rate string `yaml:"rate"` // "fast", "medium", or "slow"
}

// VaultConfig holds persistence configurations for the filesystem store.
type VaultConfig struct {
	Dir string `yaml:"dir"`
}

// EngineConfig holds all engine-related configurations, grouped logically.
type EngineConfig struct {
	Codecs    CodecsConfig   `yaml:"codecs"`
	Selector  SelectorConfig `yaml:"selector"`
	Chain     ChainConfig    `yaml:"chain"`
	Learning  LearningConfig `yaml:"learning"`
	Vault     VaultConfig    `yaml:"vault"`
	SelfCheck bool           `yaml:"self_check"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "none"
}

// Config is the root configuration object.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Engine.Selector.ConfidenceThreshold == 0 {
		c.Engine.Selector.ConfidenceThreshold = 0.80
	}
	if c.Engine.Selector.MaxCandidates == 0 {
		c.Engine.Selector.MaxCandidates = 3
	}
	if c.Engine.Chain.MaxDepth == 0 {
		c.Engine.Chain.MaxDepth = core.MaxChainDepth
	}
	if c.Engine.Chain.ExecutionBudget == "" {
		c.Engine.Chain.ExecutionBudget = "2s"
	}
	if c.Engine.Learning.Rate == "" {
		c.Engine.Learning.Rate = string(memory.RateMedium)
	}
	if c.Engine.Vault.Dir == "" {
		c.Engine.Vault.Dir = "./data/vault"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks the semantic constraints of a configuration.
func (c *Config) Validate() error {
	if c.Engine.Selector.ConfidenceThreshold < 0 || c.Engine.Selector.ConfidenceThreshold > 1 {
		return fmt.Errorf("selector.confidence_threshold must be in [0, 1], got %v", c.Engine.Selector.ConfidenceThreshold)
	}
	if c.Engine.Chain.MaxDepth < 1 || c.Engine.Chain.MaxDepth > core.MaxChainDepth {
		return fmt.Errorf("chain.max_depth must be in [1, %d], got %d", core.MaxChainDepth, c.Engine.Chain.MaxDepth)
	}
	if _, err := c.ExecutionBudget(); err != nil {
		return err
	}
	if _, err := memory.LearningRate(c.Engine.Learning.Rate).Alpha(); err != nil {
		return fmt.Errorf("learning.rate: %w", err)
	}
	if _, err := c.CodecSet(); err != nil {
		return err
	}
	return nil
}

// ExecutionBudget parses the per-chain execution budget.
func (c *Config) ExecutionBudget() (time.Duration, error) {
	d, err := time.ParseDuration(c.Engine.Chain.ExecutionBudget)
	if err != nil {
		return 0, fmt.Errorf("chain.execution_budget: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("chain.execution_budget must be positive, got %v", d)
	}
	return d, nil
}

// CodecSet resolves the enabled codec names. An empty list means nil,
// which callers interpret as "everything registered".
func (c *Config) CodecSet() ([]core.CodecType, error) {
	if len(c.Engine.Codecs.Enabled) == 0 {
		return nil, nil
	}
	out := make([]core.CodecType, 0, len(c.Engine.Codecs.Enabled))
	for _, name := range c.Engine.Codecs.Enabled {
		ct, err := core.ParseCodecType(name)
		if err != nil {
			return nil, fmt.Errorf("codecs.enabled: %w", err)
		}
		out = append(out, ct)
	}
	return out, nil
}

// LearningRate returns the configured pattern-memory learning rate.
func (c *Config) LearningRate() memory.LearningRate {
	return memory.LearningRate(c.Engine.Learning.Rate)
}

// Load reads and validates a YAML configuration file, filling in
// defaults for everything unset.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()
	return load(file)
}

func load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the slog logger described by the logging section.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	var w io.Writer
	switch c.Logging.Output {
	case "stderr":
		w = os.Stderr
	case "none":
		w = io.Discard
	default:
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
