package game

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Situation is what a policy sees when it is the bot's turn.
type Situation struct {
	Equity       float64 // the bot's own win probability estimate
	Owed         int
	Chips        int
	MinBet       int
	InitialStack int
	Round        Round
}

// Policy decides the bot's move. Implementations must be deterministic given
// the situation.
type Policy interface {
	Decide(s Situation) Decision
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(s Situation) Decision

func (f PolicyFunc) Decide(s Situation) Decision { return f(s) }

// ThresholdPolicy calls or folds on CallThreshold when facing a bet, and
// otherwise raises a fraction of the initial stack above RaiseBig, one
// minimum bet above RaiseSmall, and checks below.
type ThresholdPolicy struct {
	CallThreshold float64
	RaiseSmall    float64
	RaiseBig      float64
	BigFraction   float64
}

// DefaultThresholdPolicy returns the standard opponent.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		CallThreshold: 0.5,
		RaiseSmall:    0.7,
		RaiseBig:      0.9,
		BigFraction:   0.3,
	}
}

func (p ThresholdPolicy) Decide(s Situation) Decision {
	if s.Owed > 0 {
		if s.Equity >= p.CallThreshold {
			return CallDecision()
		}
		return FoldDecision()
	}

	switch {
	case s.Equity >= p.RaiseBig:
		return RaiseDecision(min(int(p.BigFraction*float64(s.InitialStack)), s.Chips))
	case s.Equity >= p.RaiseSmall:
		return RaiseDecision(min(s.MinBet, s.Chips))
	default:
		return CheckDecision()
	}
}

// CallingStation never folds and never raises.
type CallingStation struct{}

func (CallingStation) Decide(s Situation) Decision {
	if s.Owed > 0 {
		return CallDecision()
	}
	return CheckDecision()
}

// FoldPolicy gives up whenever it is asked to pay.
type FoldPolicy struct{}

func (FoldPolicy) Decide(s Situation) Decision {
	if s.Owed > 0 {
		return FoldDecision()
	}
	return CheckDecision()
}

// PolicyNames lists the names PolicyByName accepts.
var PolicyNames = []string{"threshold", "calling-station", "fold"}

// PolicyByName returns a built-in policy. An empty name selects the
// threshold policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "threshold":
		return DefaultThresholdPolicy(), nil
	case "calling-station", "call":
		return CallingStation{}, nil
	case "fold":
		return FoldPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownPolicy, name, strings.Join(PolicyNames, ", "))
	}
}
