// Package config loads a testing-engine run's configuration from YAML,
// the same library and struct-tag style the teacher uses for its
// resource manifests.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig configures one invocation of the testing engine: how many
// iterations to run, which exploration strategy to drive them with, and
// the budgets that bound a single iteration, per §4.6/§4.7.
type RunConfig struct {
	// Iterations is how many independent schedules the engine explores.
	Iterations int `yaml:"iterations"`
	// Strategy names the exploration strategy: "random", "dfs", "pct",
	// or "fair-random".
	Strategy string `yaml:"strategy"`
	// Seed seeds the strategy's randomness, for "random", "pct", and
	// "fair-random". Ignored by "dfs", which is seedless.
	Seed int64 `yaml:"seed"`
	// MaxUnfairSteps bounds the number of scheduling decisions a single
	// iteration may consume before it is aborted as a budget-exceeded
	// bug, per §4.6. This is the hard ceiling on the whole iteration,
	// fair or not.
	MaxUnfairSteps int `yaml:"maxUnfairSteps"`
	// MaxFairSteps bounds how long a schedule is trusted to behave
	// fairly for liveness purposes, per §4.6/§4.7. Once an iteration
	// passes this many steps, the scheduler stops crediting the
	// schedule as fair and begins checking monitors for starvation;
	// before that point a monitor is allowed to stay hot without being
	// reported, since a short prefix of an otherwise-fair schedule can
	// look temporarily starved. MaxFairSteps must be <= MaxUnfairSteps.
	MaxFairSteps int `yaml:"maxFairSteps"`
	// LivenessTemperatureThreshold bounds how many consecutive steps a
	// monitor may stay hot under a fair strategy before it is reported
	// as a liveness bug, per §4.4.
	LivenessTemperatureThreshold int `yaml:"livenessTemperatureThreshold"`
	// PCTBugDepth is the number of priority classes the "pct" strategy
	// samples; ignored by every other strategy.
	PCTBugDepth int `yaml:"pctBugDepth"`
	// FairRandomStarvation bounds how many steps an enabled operation
	// may go without running under "fair-random" before it is forced to
	// the front; ignored by every other strategy.
	FairRandomStarvation int `yaml:"fairRandomStarvation"`
	// Monitors lists the specification monitor types to register for
	// every iteration, by name.
	Monitors []string `yaml:"monitors,omitempty"`
}

// Default returns a RunConfig with the testing engine's baseline
// values, the same role the scheduler's own internal defaults play when
// a Config field is left at its zero value.
func Default() RunConfig {
	return RunConfig{
		Iterations:                   100,
		Strategy:                     "random",
		Seed:                         1,
		MaxUnfairSteps:               10000,
		MaxFairSteps:                 5000,
		LivenessTemperatureThreshold: 1000,
		PCTBugDepth:                  3,
		FairRandomStarvation:         100,
	}
}

// Load reads and parses a RunConfig from path, filling unset fields from
// Default.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a RunConfig from raw YAML bytes, filling unset fields
// from Default so a minimal file (e.g. just "strategy: dfs") is valid.
func Parse(data []byte) (RunConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate reports an error for any field combination the testing
// engine cannot act on.
func (c RunConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("config: iterations must be positive, got %d", c.Iterations)
	}
	switch c.Strategy {
	case "random", "dfs", "pct", "fair-random":
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if c.MaxFairSteps > c.MaxUnfairSteps {
		return fmt.Errorf("config: maxFairSteps (%d) must not exceed maxUnfairSteps (%d)", c.MaxFairSteps, c.MaxUnfairSteps)
	}
	return nil
}

// Marshal round-trips c back to YAML bytes.
func (c RunConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return data, nil
}
