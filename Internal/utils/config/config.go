package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fazecat/stratlab/Internal/strategy"
)

// Config is the run-level configuration loaded from config.yaml.
type Config struct {
	Capital          float64  `yaml:"capital"`
	CapitalPerTicker float64  `yaml:"capital_per_ticker"`
	Tickers          []string `yaml:"tickers"`
	RiskFreeRate     float64  `yaml:"risk_free_rate"`

	Benchmark struct {
		Ticker           string  `yaml:"ticker"`
		PositionFraction float64 `yaml:"position_fraction"`
	} `yaml:"benchmark"`

	Forecasts struct {
		LSTMDir         string `yaml:"lstm_dir"`
		RandomForestDir string `yaml:"random_forest_dir"`
	} `yaml:"forecasts"`

	Profiles map[string]strategy.Profile `yaml:"profiles"`
}

// Defaults returns the configuration used when no config.yaml is present:
// both stock strategy profiles, the conservative benchmark sizing, and a
// zero risk-free rate.
func Defaults() *Config {
	cfg := &Config{
		Capital:          100000,
		CapitalPerTicker: 20000,
		Profiles: map[string]strategy.Profile{
			"conservative": strategy.Conservative(),
			"aggressive":   strategy.Aggressive(),
		},
	}
	cfg.Benchmark.PositionFraction = 0.50
	return cfg
}

// Load reads config.yaml, trying a few locations so the binary works from
// the repo root as well as from cmd subdirectories. Missing file falls back
// to Defaults; a present but invalid file is an error.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	possiblePaths := []string{
		filepath.Join(cwd, "config.yaml"),
		filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"),
		"config.yaml",
	}

	var data []byte
	for _, path := range possiblePaths {
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
	}
	if data == nil {
		return Defaults(), nil
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config.yaml: %w", err)
	}

	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
			cfg.Profiles[name] = p
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Profile returns the named profile, or nil when unknown.
func (c *Config) Profile(name string) *strategy.Profile {
	if p, ok := c.Profiles[name]; ok {
		return &p
	}
	return nil
}
