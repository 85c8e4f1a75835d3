// Package statistics aggregates episode rewards from simulation runs.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Streets is the number of betting rounds an episode can reach.
const Streets = 4

// EpisodeResult represents the outcome of a single hand from the agent's
// point of view.
type EpisodeResult struct {
	Reward        float64 // signed pot / initial stack
	NetChips      int     // agent's stack change over the hand
	Seed          int64   // RNG seed for this episode (for replay)
	AgentDealer   bool    // agent posted the small blind
	Showdown      bool    // did the hand go to showdown?
	Split         bool    // pot was split
	Pot           int     // final pot size in chips
	StreetReached int     // 0 preflop .. 3 river
	Steps         int     // agent decisions taken
}

// SeatStats tracks results for one seat assignment.
type SeatStats struct {
	Hands     int
	SumReward float64
}

// Mean returns the mean reward for the seat.
func (s SeatStats) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumReward / float64(s.Hands)
}

// Statistics tracks reward statistics over many episodes.
type Statistics struct {
	Hands   int
	Sum     float64
	SumSq   float64   // Sum of squares for variance calculation
	Values  []float64 // Store all values for median/percentile calculation
	Steps   int
	NetChip int

	Wins   int
	Losses int
	Splits int

	// Detailed analytics - track ALL results, not just wins
	ShowdownWins    int
	NonShowdownWins int     // hands won because the bot folded
	ShowdownReward  float64 // reward from showdowns (wins AND losses)
	FoldReward      float64 // reward from folds (wins AND losses)
	AllReward       float64 // total reward for sanity check

	Dealer    SeatStats
	NonDealer SeatStats

	Streets [Streets]int

	MaxPot int
}

// Mean returns the arithmetic mean reward per episode
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.Sum / float64(s.Hands)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a new episode result into the statistics
func (s *Statistics) Add(r EpisodeResult) {
	s.Hands++
	s.Sum += r.Reward
	s.SumSq += r.Reward * r.Reward
	s.Values = append(s.Values, r.Reward)
	s.Steps += r.Steps
	s.NetChip += r.NetChips

	switch {
	case r.Split:
		s.Splits++
	case r.Reward > 0:
		s.Wins++
		if r.Showdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	default:
		s.Losses++
	}

	if r.Showdown {
		s.ShowdownReward += r.Reward
	} else {
		s.FoldReward += r.Reward
	}
	s.AllReward += r.Reward

	seat := &s.NonDealer
	if r.AgentDealer {
		seat = &s.Dealer
	}
	seat.Hands++
	seat.SumReward += r.Reward

	if r.StreetReached >= 0 && r.StreetReached < Streets {
		s.Streets[r.StreetReached]++
	}
	s.MaxPot = max(s.MaxPot, r.Pot)
}

// WinRate returns the fraction of episodes the agent won outright.
func (s *Statistics) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Hands)
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	p = math.Min(math.Max(p, 0), 1)
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsLedgerBalanced checks if the accounting is consistent
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllReward-s.ShowdownReward-s.FoldReward) <= 1e-6
}

// Validate performs consistency checks on the collected data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: all=%.6f, showdown=%.6f, fold=%.6f",
			s.AllReward, s.ShowdownReward, s.FoldReward)
	}
	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values array length (%d) does not match hands count (%d)",
			len(s.Values), s.Hands)
	}
	if s.Wins+s.Losses+s.Splits != s.Hands {
		return fmt.Errorf("outcomes (%d) do not match total hands (%d)", s.Wins+s.Losses+s.Splits, s.Hands)
	}
	if s.Dealer.Hands+s.NonDealer.Hands != s.Hands {
		return fmt.Errorf("seat hands total (%d) does not match total hands (%d)",
			s.Dealer.Hands+s.NonDealer.Hands, s.Hands)
	}
	return nil
}
