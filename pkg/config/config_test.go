package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFillsDefaultsForMinimalFile(t *testing.T) {
	cfg, err := Parse([]byte("strategy: dfs\n"))
	require.NoError(t, err)
	assert.Equal(t, "dfs", cfg.Strategy)
	assert.Equal(t, 100, cfg.Iterations)
	assert.Equal(t, 10000, cfg.MaxUnfairSteps)
	assert.Equal(t, 5000, cfg.MaxFairSteps)
}

func TestParseRejectsFairStepsAboveUnfairSteps(t *testing.T) {
	_, err := Parse([]byte("maxFairSteps: 20000\nmaxUnfairSteps: 10000\n"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	_, err := Parse([]byte("strategy: quantum\n"))
	assert.Error(t, err)
}

func TestParseRejectsNonPositiveIterations(t *testing.T) {
	_, err := Parse([]byte("iterations: 0\n"))
	assert.Error(t, err)
}

// TestRoundTripLawHoldsForRunConfig exercises §8's configuration
// round-trip property: Marshal then Parse yields an equivalent config.
func TestRoundTripLawHoldsForRunConfig(t *testing.T) {
	cfg := Default()
	cfg.Strategy = "pct"
	cfg.Seed = 42
	cfg.Monitors = []string{"busy-idle"}

	data, err := cfg.Marshal()
	require.NoError(t, err)

	roundTripped, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, roundTripped)
}
