// Package config loads holdemgym settings from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdemgym/internal/game"
)

var ErrInvalid = errors.New("invalid config")

// Config is the complete file configuration. Every block is optional;
// missing blocks and zero-valued attributes take their defaults.
type Config struct {
	Env        EnvSettings
	Bot        BotSettings
	Simulation SimulationSettings
	Server     ServerSettings
}

// EnvSettings are the table constants.
type EnvSettings struct {
	InitialStack   int     `hcl:"initial_stack,optional"`
	MinBet         int     `hcl:"min_bet,optional"`
	MaxBetFraction float64 `hcl:"max_bet_fraction,optional"`
	EquitySamples  int     `hcl:"equity_samples,optional"`
	Dealer         string  `hcl:"dealer,optional"`
	EquityPool     string  `hcl:"equity_pool,optional"`
}

// BotSettings choose and tune the opponent.
type BotSettings struct {
	Policy        string  `hcl:"policy,optional"`
	CallThreshold float64 `hcl:"call_threshold,optional"`
	RaiseSmall    float64 `hcl:"raise_small,optional"`
	RaiseBig      float64 `hcl:"raise_big,optional"`
	BigFraction   float64 `hcl:"big_fraction,optional"`
}

// SimulationSettings drive batch episode runs.
type SimulationSettings struct {
	Episodes        int    `hcl:"episodes,optional"`
	Seed            int64  `hcl:"seed,optional"`
	Concurrency     int    `hcl:"concurrency,optional"`
	Agent           string `hcl:"agent,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
	HandHistoryDir  string `hcl:"hand_history_dir,optional"`
	Store           string `hcl:"store,optional"`
}

// ServerSettings configure the environment server.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	Seed     int64  `hcl:"seed,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// file mirrors Config with pointer blocks so each block may be omitted.
type file struct {
	Env        *EnvSettings        `hcl:"env,block"`
	Bot        *BotSettings        `hcl:"bot,block"`
	Simulation *SimulationSettings `hcl:"simulation,block"`
	Server     *ServerSettings     `hcl:"server,block"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	g := game.DefaultConfig()
	p := game.DefaultThresholdPolicy()
	return &Config{
		Env: EnvSettings{
			InitialStack:   g.InitialStack,
			MinBet:         g.MinBet,
			MaxBetFraction: g.MaxBetFraction,
			EquitySamples:  g.EquitySamples,
			Dealer:         string(g.Dealer),
			EquityPool:     string(g.EquityPool),
		},
		Bot: BotSettings{
			Policy:        "threshold",
			CallThreshold: p.CallThreshold,
			RaiseSmall:    p.RaiseSmall,
			RaiseBig:      p.RaiseBig,
			BigFraction:   p.BigFraction,
		},
		Simulation: SimulationSettings{
			Episodes:        1000,
			Agent:           "random",
			DecisionTimeout: "5s",
		},
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and applies defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := DefaultConfig()
	if raw.Env != nil {
		cfg.Env.merge(*raw.Env)
	}
	if raw.Bot != nil {
		cfg.Bot.merge(*raw.Bot)
	}
	if raw.Simulation != nil {
		cfg.Simulation.merge(*raw.Simulation)
	}
	if raw.Server != nil {
		cfg.Server.merge(*raw.Server)
	}
	return cfg, nil
}

func (e *EnvSettings) merge(o EnvSettings) {
	setIf(&e.InitialStack, o.InitialStack)
	setIf(&e.MinBet, o.MinBet)
	setIf(&e.MaxBetFraction, o.MaxBetFraction)
	setIf(&e.EquitySamples, o.EquitySamples)
	setIf(&e.Dealer, o.Dealer)
	setIf(&e.EquityPool, o.EquityPool)
}

func (b *BotSettings) merge(o BotSettings) {
	setIf(&b.Policy, o.Policy)
	setIf(&b.CallThreshold, o.CallThreshold)
	setIf(&b.RaiseSmall, o.RaiseSmall)
	setIf(&b.RaiseBig, o.RaiseBig)
	setIf(&b.BigFraction, o.BigFraction)
}

func (s *SimulationSettings) merge(o SimulationSettings) {
	setIf(&s.Episodes, o.Episodes)
	setIf(&s.Seed, o.Seed)
	setIf(&s.Concurrency, o.Concurrency)
	setIf(&s.Agent, o.Agent)
	setIf(&s.DecisionTimeout, o.DecisionTimeout)
	setIf(&s.HandHistoryDir, o.HandHistoryDir)
	setIf(&s.Store, o.Store)
}

func (s *ServerSettings) merge(o ServerSettings) {
	setIf(&s.Address, o.Address)
	setIf(&s.Port, o.Port)
	setIf(&s.Seed, o.Seed)
	setIf(&s.LogLevel, o.LogLevel)
}

func setIf[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// Game returns the Env configuration.
func (c *Config) Game() game.Config {
	return game.Config{
		InitialStack:   c.Env.InitialStack,
		MinBet:         c.Env.MinBet,
		MaxBetFraction: c.Env.MaxBetFraction,
		EquitySamples:  c.Env.EquitySamples,
		Dealer:         game.DealerMode(c.Env.Dealer),
		EquityPool:     game.EquityPool(c.Env.EquityPool),
	}
}

// Policy builds the configured bot policy. Threshold tuning only applies to
// the threshold policy.
func (c *Config) Policy() (game.Policy, error) {
	p, err := game.PolicyByName(c.Bot.Policy)
	if err != nil {
		return nil, err
	}
	if _, ok := p.(game.ThresholdPolicy); ok {
		return game.ThresholdPolicy{
			CallThreshold: c.Bot.CallThreshold,
			RaiseSmall:    c.Bot.RaiseSmall,
			RaiseBig:      c.Bot.RaiseBig,
			BigFraction:   c.Bot.BigFraction,
		}, nil
	}
	return p, nil
}

// DecisionTimeout parses the per-decision deadline. Zero disables it.
func (c *Config) DecisionTimeout() (time.Duration, error) {
	if c.Simulation.DecisionTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Simulation.DecisionTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: decision_timeout: %v", ErrInvalid, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: decision_timeout cannot be negative", ErrInvalid)
	}
	return d, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := c.Game().Validate(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: bot: %v", ErrInvalid, err)
	}
	b := c.Bot
	if b.CallThreshold < 0 || b.CallThreshold > 1 || b.RaiseSmall < 0 || b.RaiseSmall > 1 || b.RaiseBig < 0 || b.RaiseBig > 1 {
		return fmt.Errorf("%w: bot thresholds must be in [0, 1]", ErrInvalid)
	}
	if b.RaiseSmall > b.RaiseBig {
		return fmt.Errorf("%w: raise_small %.2f exceeds raise_big %.2f", ErrInvalid, b.RaiseSmall, b.RaiseBig)
	}
	if b.BigFraction <= 0 || b.BigFraction > 1 {
		return fmt.Errorf("%w: big_fraction must be in (0, 1]", ErrInvalid)
	}
	if c.Simulation.Episodes < 0 {
		return fmt.Errorf("%w: episodes cannot be negative", ErrInvalid)
	}
	if c.Simulation.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency cannot be negative", ErrInvalid)
	}
	if !slices.Contains(game.AgentNames, c.Simulation.Agent) {
		return fmt.Errorf("%w: unknown agent %q", ErrInvalid, c.Simulation.Agent)
	}
	if _, err := c.DecisionTimeout(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalid, c.Server.Port)
	}
	return nil
}
