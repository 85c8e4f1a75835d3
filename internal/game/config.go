package game

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid game config")

// DealerMode selects how the dealer seat is assigned each hand.
type DealerMode string

const (
	DealerRandom    DealerMode = "random"
	DealerAlternate DealerMode = "alternate"
)

// EquityPool selects which cards the agent's win probability is sampled
// from.
type EquityPool string

const (
	// PoolRemaining samples from the undealt deck, which also excludes the
	// bot's hole cards.
	PoolRemaining EquityPool = "remaining"
	// PoolUnseen samples from every card the agent cannot see.
	PoolUnseen EquityPool = "unseen"
)

// Config holds the table constants for an Env.
type Config struct {
	InitialStack   int
	MinBet         int // big blind; the small blind is half of it
	MaxBetFraction float64
	EquitySamples  int
	Dealer         DealerMode
	EquityPool     EquityPool
}

// DefaultConfig returns the standard table.
func DefaultConfig() Config {
	return Config{
		InitialStack:   1000,
		MinBet:         10,
		MaxBetFraction: 0.3,
		EquitySamples:  1000,
		Dealer:         DealerRandom,
		EquityPool:     PoolRemaining,
	}
}

// SmallBlind is half the minimum bet.
func (c Config) SmallBlind() int { return c.MinBet / 2 }

// BigBlind equals the minimum bet.
func (c Config) BigBlind() int { return c.MinBet }

// MaxBet is the per-bet cap U.
func (c Config) MaxBet() int {
	return int(c.MaxBetFraction * float64(c.InitialStack))
}

// InterpretParams returns the interpreter units for this table.
func (c Config) InterpretParams() InterpretParams {
	return InterpretParams{MinBet: c.MinBet, MaxBet: c.MaxBet()}
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.InitialStack <= 0 {
		return fmt.Errorf("%w: initial stack must be positive", ErrInvalidConfig)
	}
	if c.MinBet < 2 {
		return fmt.Errorf("%w: min bet must be at least 2", ErrInvalidConfig)
	}
	if c.MinBet > c.InitialStack {
		return fmt.Errorf("%w: min bet %d exceeds initial stack %d", ErrInvalidConfig, c.MinBet, c.InitialStack)
	}
	if c.MaxBetFraction <= 0 || c.MaxBetFraction > 1 {
		return fmt.Errorf("%w: max bet fraction must be in (0, 1]", ErrInvalidConfig)
	}
	if c.EquitySamples < 0 {
		return fmt.Errorf("%w: equity samples cannot be negative", ErrInvalidConfig)
	}
	switch c.Dealer {
	case DealerRandom, DealerAlternate:
	default:
		return fmt.Errorf("%w: unknown dealer mode %q", ErrInvalidConfig, c.Dealer)
	}
	switch c.EquityPool {
	case PoolRemaining, PoolUnseen:
	default:
		return fmt.Errorf("%w: unknown equity pool %q", ErrInvalidConfig, c.EquityPool)
	}
	return nil
}
