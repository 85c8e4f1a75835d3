package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/randutil"
)

const (
	// DefaultSamples is the number of Monte Carlo trials per estimate.
	DefaultSamples = 1000
	// ParallelThreshold is the sample count at which trials are split into
	// independently seeded chunks.
	ParallelThreshold = 500
	chunks            = 8
	maxWorkers        = chunks
)

var (
	ErrInvalidSamples = errors.New("sample count must be positive")
	ErrNotEnoughCards = errors.New("not enough cards to complete the hand")
	ErrInvalidHole    = errors.New("exactly two hole cards required")
)

// EquityFunc estimates the probability that mine beats a random opponent
// hand drawn from pool. Estimator.Equity satisfies it; tests substitute
// fixed values.
type EquityFunc func(rng *rand.Rand, mine, community, pool []deck.Card) (float64, error)

// EquityResult holds the outcome counts of an estimate.
type EquityResult struct {
	Wins    int
	Ties    int
	Losses  int
	Samples int
}

// Equity returns (wins + ties/2) / samples.
func (e EquityResult) Equity() float64 {
	if e.Samples == 0 {
		return 0
	}
	return (float64(e.Wins) + float64(e.Ties)*0.5) / float64(e.Samples)
}

// WinRate returns the win rate as a fraction (0.0 to 1.0)
func (e EquityResult) WinRate() float64 {
	if e.Samples == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Samples)
}

// TieRate returns the tie rate as a fraction (0.0 to 1.0)
func (e EquityResult) TieRate() float64 {
	if e.Samples == 0 {
		return 0
	}
	return float64(e.Ties) / float64(e.Samples)
}

// ConfidenceInterval returns the 95% confidence interval for equity
func (e EquityResult) ConfidenceInterval() (lower, upper float64) {
	if e.Samples == 0 {
		return 0, 0
	}
	p := e.Equity()
	margin := 1.96 * math.Sqrt(p*(1-p)/float64(e.Samples))
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

func (e *EquityResult) add(o EquityResult) {
	e.Wins += o.Wins
	e.Ties += o.Ties
	e.Losses += o.Losses
	e.Samples += o.Samples
}

// Estimator runs Monte Carlo trials against a single random opponent.
// The zero value uses DefaultSamples and up to eight workers.
type Estimator struct {
	Samples int
	Workers int
}

// Equity is Estimate reduced to a single probability.
func (e Estimator) Equity(rng *rand.Rand, mine, community, pool []deck.Card) (float64, error) {
	res, err := e.Estimate(rng, mine, community, pool)
	if err != nil {
		return 0, err
	}
	return res.Equity(), nil
}

// Estimate samples board completions and opponent hands from pool (minus
// mine and community). The caller's slices are never modified.
func (e Estimator) Estimate(rng *rand.Rand, mine, community, pool []deck.Card) (EquityResult, error) {
	return e.EstimateContext(context.Background(), rng, mine, community, pool)
}

// EstimateContext is Estimate with cancellation between trials.
func (e Estimator) EstimateContext(ctx context.Context, rng *rand.Rand, mine, community, pool []deck.Card) (EquityResult, error) {
	samples := e.Samples
	if samples == 0 {
		samples = DefaultSamples
	}
	if samples < 0 {
		return EquityResult{}, fmt.Errorf("%w: %d", ErrInvalidSamples, samples)
	}
	if len(mine) != 2 {
		return EquityResult{}, fmt.Errorf("%w: got %d", ErrInvalidHole, len(mine))
	}
	if err := validate(mine, community); err != nil {
		return EquityResult{}, err
	}

	remaining := deck.Without(pool, append(cloneCards(mine), community...)...)
	need := 5 - len(community) + 2
	if len(remaining) < need {
		return EquityResult{}, fmt.Errorf("%w: need %d, pool has %d", ErrNotEnoughCards, need, len(remaining))
	}

	if samples < ParallelThreshold {
		return runTrials(ctx, rng, mine, community, remaining, samples)
	}

	// Large estimates always split into the same fixed chunks with forked
	// streams drawn up front. Workers only bounds how many run at once, so
	// the result and the caller's rng state do not depend on the host.
	rngs := make([]*rand.Rand, chunks)
	for c := range rngs {
		rngs[c] = randutil.Fork(rng)
	}

	per, extra := samples/chunks, samples%chunks
	results := make([]EquityResult, chunks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for c := 0; c < chunks; c++ {
		n := per
		if c < extra {
			n++
		}
		g.Go(func() error {
			pool := make([]deck.Card, len(remaining))
			copy(pool, remaining)
			res, err := runTrials(gctx, rngs[c], mine, community, pool, n)
			results[c] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EquityResult{}, err
	}

	var total EquityResult
	for _, r := range results {
		total.add(r)
	}
	return total, nil
}

func (e Estimator) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return min(runtime.NumCPU(), maxWorkers)
}

// runTrials owns pool and reorders it freely.
func runTrials(ctx context.Context, rng *rand.Rand, mine, community, pool []deck.Card, samples int) (EquityResult, error) {
	boardNeed := 5 - len(community)
	draw := boardNeed + 2

	hero := make([]deck.Card, 0, 7)
	villain := make([]deck.Card, 0, 7)
	var res EquityResult

	for i := 0; i < samples; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		// Partial Fisher-Yates over just the cards this trial draws.
		for k := 0; k < draw; k++ {
			j := k + rng.IntN(len(pool)-k)
			pool[k], pool[j] = pool[j], pool[k]
		}
		board := pool[:boardNeed]
		opp := pool[boardNeed:draw]

		hero = append(append(append(hero[:0], mine...), community...), board...)
		villain = append(append(append(villain[:0], opp...), community...), board...)

		switch best(hero).Compare(best(villain)) {
		case 1:
			res.Wins++
		case 0:
			res.Ties++
		default:
			res.Losses++
		}
		res.Samples++
	}
	return res, nil
}

func cloneCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards), len(cards)+5)
	copy(out, cards)
	return out
}
