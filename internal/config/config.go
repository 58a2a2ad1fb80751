// Package config provides unified configuration loading for bayeslab.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/statlab/bayeslab/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config contains all bayeslab configuration settings.
type Config struct {
	// Sampler contains defaults for MCMC runs.
	Sampler SamplerConfig `json:"sampler" yaml:"sampler"`

	// Summary contains settings for posterior summarization.
	Summary SummaryConfig `json:"summary" yaml:"summary"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SamplerConfig configures the MCMC engine defaults. Per-run flags override
// these values.
type SamplerConfig struct {
	// Chains is the number of chains run concurrently.
	Chains int `json:"chains" yaml:"chains"`

	// Warmup is the number of adaptation iterations per chain (discarded).
	Warmup int `json:"warmup" yaml:"warmup"`

	// Iterations is the number of kept draws per chain.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Seed is the base RNG seed. Chain c samples from seed+c.
	Seed uint64 `json:"seed" yaml:"seed"`

	// TargetAccept is the acceptance rate warmup adaptation steers toward.
	TargetAccept float64 `json:"target_accept" yaml:"target_accept"`
}

// SummaryConfig configures posterior summaries and predictive checks.
type SummaryConfig struct {
	// IntervalMass is the central credible-interval mass, in (0, 1).
	IntervalMass float64 `json:"interval_mass" yaml:"interval_mass"`

	// PPCDraws is the number of posterior draws used for replicated
	// datasets in posterior predictive checks.
	PPCDraws int `json:"ppc_draws" yaml:"ppc_draws"`
}

// LoggingConfig configures bayeslab's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables sampler trace logging to .bayeslab/trace.jsonl.
	// "trace" additionally includes per-window adaptation events.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Chains:       constants.DefaultChains,
			Warmup:       constants.DefaultWarmup,
			Iterations:   constants.DefaultIterations,
			Seed:         constants.DefaultSeed,
			TargetAccept: constants.DefaultTargetAccept,
		},
		Summary: SummaryConfig{
			IntervalMass: constants.DefaultIntervalMass,
			PPCDraws:     constants.DefaultPPCDraws,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration for the workspace rooted at root.
// Order: defaults -> root/.bayeslab/config.yaml -> environment variables.
func Load(root string) (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(root, ".bayeslab", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fileCfg, loadErr := LoadFromFile(configPath)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Sampler.Chains < 1 {
		return fmt.Errorf("chains must be at least 1, got %d", c.Sampler.Chains)
	}
	if c.Sampler.Warmup < 0 {
		return fmt.Errorf("warmup must be non-negative, got %d", c.Sampler.Warmup)
	}
	if c.Sampler.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Sampler.Iterations)
	}
	if c.Sampler.TargetAccept <= 0 || c.Sampler.TargetAccept >= 1 {
		return fmt.Errorf("target_accept must be in (0, 1), got %f", c.Sampler.TargetAccept)
	}

	if c.Summary.IntervalMass <= 0 || c.Summary.IntervalMass >= 1 {
		return fmt.Errorf("interval_mass must be in (0, 1), got %f", c.Summary.IntervalMass)
	}
	if c.Summary.PPCDraws < 1 {
		return fmt.Errorf("ppc_draws must be at least 1, got %d", c.Summary.PPCDraws)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BAYESLAB_CHAINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Chains = n
		}
	}

	if v := os.Getenv("BAYESLAB_WARMUP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Warmup = n
		}
	}

	if v := os.Getenv("BAYESLAB_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Iterations = n
		}
	}

	if v := os.Getenv("BAYESLAB_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Sampler.Seed = n
		}
	}

	if v := os.Getenv("BAYESLAB_INTERVAL_MASS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Summary.IntervalMass = f
		}
	}

	if v := os.Getenv("BAYESLAB_PPC_DRAWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Summary.PPCDraws = n
		}
	}

	if v := os.Getenv("BAYESLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
