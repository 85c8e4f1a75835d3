package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var ErrUnknownAgent = errors.New("unknown agent")

// Agent is the external decision-maker: it sees an observation and answers
// with a single action signal.
type Agent interface {
	Act(ctx context.Context, obs Observation) (float64, error)
}

// AgentFunc adapts a plain function to Agent.
type AgentFunc func(ctx context.Context, obs Observation) (float64, error)

func (f AgentFunc) Act(ctx context.Context, obs Observation) (float64, error) {
	return f(ctx, obs)
}

// ConstantAgent always sends the same signal.
type ConstantAgent float64

func (c ConstantAgent) Act(context.Context, Observation) (float64, error) {
	return float64(c), nil
}

// RandomAgent sends signals drawn uniformly from [Low, High).
type RandomAgent struct {
	Low, High float64
	RNG       *rand.Rand
}

// NewRandomAgent returns a RandomAgent over [-100, 100).
func NewRandomAgent(rng *rand.Rand) *RandomAgent {
	return &RandomAgent{Low: -100, High: 100, RNG: rng}
}

func (a *RandomAgent) Act(context.Context, Observation) (float64, error) {
	return a.Low + a.RNG.Float64()*(a.High-a.Low), nil
}

// EquityAgent bets in proportion to its observed win probability.
type EquityAgent struct {
	Scale float64
}

func (a EquityAgent) Act(_ context.Context, obs Observation) (float64, error) {
	return obs.Equity() * a.Scale, nil
}

// AgentNames lists the names NewAgent accepts.
var AgentNames = []string{"random", "equity", "fold", "raiser"}

// NewAgent returns a built-in scripted agent.
func NewAgent(name string, minBet int, rng *rand.Rand) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random":
		return NewRandomAgent(rng), nil
	case "equity":
		return EquityAgent{Scale: float64(3 * minBet)}, nil
	case "fold":
		return ConstantAgent(0), nil
	case "raiser":
		return ConstantAgent(2 * minBet), nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownAgent, name, strings.Join(AgentNames, ", "))
	}
}
