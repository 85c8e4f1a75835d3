package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/game"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, game.DefaultConfig(), cfg.Game())
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdemgym.hcl")
	src := `
env {
  initial_stack = 2000
  min_bet       = 20
  dealer        = "alternate"
}

bot {
  policy     = "threshold"
  raise_big  = 0.95
}

simulation {
  episodes         = 50
  seed             = 42
  agent            = "equity"
  decision_timeout = "250ms"
  store            = "episodes.db"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	g := cfg.Game()
	assert.Equal(t, 2000, g.InitialStack)
	assert.Equal(t, 20, g.MinBet)
	assert.Equal(t, game.DealerAlternate, g.Dealer)
	// Unset attributes keep their defaults.
	assert.Equal(t, 0.3, g.MaxBetFraction)
	assert.Equal(t, game.PoolRemaining, g.EquityPool)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, game.ThresholdPolicy{CallThreshold: 0.5, RaiseSmall: 0.7, RaiseBig: 0.95, BigFraction: 0.3}, p)

	assert.Equal(t, 50, cfg.Simulation.Episodes)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "episodes.db", cfg.Simulation.Store)
	d, err := cfg.DecisionTimeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	// The server block was omitted entirely.
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestParseNonThresholdPolicy(t *testing.T) {
	cfg, err := Parse([]byte(`bot { policy = "calling-station" }`), "test.hcl")
	require.NoError(t, err)
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, game.CallingStation{}, p)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `env {`},
		{"unknown attribute", `env { blinds = 3 }`},
		{"unknown block", `table "main" {}`},
		{"wrong type", `env { min_bet = "ten" }`},
		{"duplicate block", "env {}\nenv {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.hcl")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min bet too small", func(c *Config) { c.Env.MinBet = 1 }},
		{"bad dealer", func(c *Config) { c.Env.Dealer = "button" }},
		{"bad policy", func(c *Config) { c.Bot.Policy = "maniac" }},
		{"threshold out of range", func(c *Config) { c.Bot.CallThreshold = 1.5 }},
		{"raise thresholds inverted", func(c *Config) { c.Bot.RaiseSmall = 0.95 }},
		{"big fraction zero", func(c *Config) { c.Bot.BigFraction = 0 }},
		{"negative episodes", func(c *Config) { c.Simulation.Episodes = -1 }},
		{"negative concurrency", func(c *Config) { c.Simulation.Concurrency = -2 }},
		{"unknown agent", func(c *Config) { c.Simulation.Agent = "genius" }},
		{"bad timeout", func(c *Config) { c.Simulation.DecisionTimeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Simulation.DecisionTimeout = "-1s" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
