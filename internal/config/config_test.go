package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/statlab/bayeslab/internal/constants"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sampler.Chains != constants.DefaultChains {
		t.Errorf("Chains = %d, want %d", cfg.Sampler.Chains, constants.DefaultChains)
	}
	if cfg.Sampler.Warmup != constants.DefaultWarmup {
		t.Errorf("Warmup = %d, want %d", cfg.Sampler.Warmup, constants.DefaultWarmup)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `sampler:
  chains: 2
  warmup: 250
  iterations: 500
  seed: 42
summary:
  interval_mass: 0.95
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Sampler.Chains != 2 {
		t.Errorf("Chains = %d, want 2", cfg.Sampler.Chains)
	}
	if cfg.Sampler.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Sampler.Seed)
	}
	if cfg.Summary.IntervalMass != 0.95 {
		t.Errorf("IntervalMass = %f, want 0.95", cfg.Summary.IntervalMass)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}

	// Unspecified fields keep defaults.
	if cfg.Summary.PPCDraws != constants.DefaultPPCDraws {
		t.Errorf("PPCDraws = %d, want default %d", cfg.Summary.PPCDraws, constants.DefaultPPCDraws)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sampler.Chains != constants.DefaultChains {
		t.Errorf("Chains = %d, want default %d", cfg.Sampler.Chains, constants.DefaultChains)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BAYESLAB_CHAINS", "8")
	t.Setenv("BAYESLAB_SEED", "99")
	t.Setenv("BAYESLAB_LOG_LEVEL", "trace")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sampler.Chains != 8 {
		t.Errorf("Chains = %d, want 8", cfg.Sampler.Chains)
	}
	if cfg.Sampler.Seed != 99 {
		t.Errorf("Seed = %d, want 99", cfg.Sampler.Seed)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Level = %q, want trace", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero chains", func(c *Config) { c.Sampler.Chains = 0 }, true},
		{"negative warmup", func(c *Config) { c.Sampler.Warmup = -1 }, true},
		{"zero iterations", func(c *Config) { c.Sampler.Iterations = 0 }, true},
		{"target accept too high", func(c *Config) { c.Sampler.TargetAccept = 1.0 }, true},
		{"interval mass out of range", func(c *Config) { c.Summary.IntervalMass = 1.5 }, true},
		{"zero ppc draws", func(c *Config) { c.Summary.PPCDraws = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"empty log level ok", func(c *Config) { c.Logging.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	workDir := filepath.Join(dir, ".bayeslab")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "sampler:\n  chains: 0\n"
	if err := os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load() with chains: 0 should fail validation")
	}
}
