// Package config loads the engine's YAML-backed configuration, mirroring
// the teacher's cli input-loading style (decode into a typed struct, apply
// defaults, validate) but backed by gopkg.in/yaml.v3 rather than the
// teacher's own format, since this module's config is a flat settings file
// rather than a task manifest.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dporsched/internal/minimize"
	"dporsched/internal/scheduler"
)

// EngineConfig holds the knobs referenced throughout SPEC_FULL.md: the
// depth bound, per-run search budget, minimizer aggressiveness and
// ambiguity strategy choice, the replay-divergence policy, and the
// checkpoint directory.
type EngineConfig struct {
	MaxDepth             int                       `yaml:"max_depth"`
	DPORBudget           time.Duration             `yaml:"dpor_budget"`
	MinimizeBudget       time.Duration             `yaml:"minimize_budget"`
	Aggressiveness       minimize.Aggressiveness    `yaml:"aggressiveness"`
	AmbiguityStrategy    string                    `yaml:"ambiguity_strategy"`
	DivergencePolicy     scheduler.DivergencePolicy `yaml:"divergence_policy"`
	CheckpointDir        string                    `yaml:"checkpoint_dir"`
}

// Default returns the configuration used when no file is supplied: a
// generous depth bound, a 30s budget for the whole DPOR search, and the most
// conservative minimizer settings.
func Default() EngineConfig {
	return EngineConfig{
		MaxDepth:          10000,
		DPORBudget:        30 * time.Second,
		MinimizeBudget:    5 * time.Minute,
		Aggressiveness:    minimize.None,
		AmbiguityStrategy: "SrcDstFIFOOnly",
		DivergencePolicy:  scheduler.DivergenceInformational,
		CheckpointDir:     ".dpor-checkpoints",
	}
}

// Load reads and validates an EngineConfig from a YAML file at path,
// starting from Default() and overlaying whatever the file specifies.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c EngineConfig) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("config: max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.DPORBudget <= 0 {
		return fmt.Errorf("config: dpor_budget must be positive, got %s", c.DPORBudget)
	}
	switch c.AmbiguityStrategy {
	case "SrcDstFIFOOnly", "BackTrackStrategy", "FirstAndLastBacktrack", "LastOnlyStrategy":
	default:
		return fmt.Errorf("config: unknown ambiguity_strategy %q", c.AmbiguityStrategy)
	}
	return nil
}
