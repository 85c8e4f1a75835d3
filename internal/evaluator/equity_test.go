package evaluator

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/randutil"
)

func TestEstimateConvergesForPocketAces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence test in short mode")
	}
	mine := deck.MustParseCards("AsAh")
	pool := deck.FullDeck()

	small, err := Estimator{Samples: 100}.Estimate(randutil.New(1), mine, nil, pool)
	require.NoError(t, err)
	large, err := Estimator{Samples: 20000}.Estimate(randutil.New(1), mine, nil, pool)
	require.NoError(t, err)

	assert.Equal(t, 100, small.Samples)
	assert.Equal(t, 20000, large.Samples)
	assert.Equal(t, large.Samples, large.Wins+large.Ties+large.Losses)

	// Pocket aces win about 85.2% heads-up against a random hand.
	assert.InDelta(t, 0.852, large.Equity(), 0.015)
	lo, hi := large.ConfidenceInterval()
	assert.Less(t, hi-lo, 0.02)
	assert.InDelta(t, 0.852, small.Equity(), 0.15)
}

func TestEstimateKnownOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		mine      string
		community string
		want      float64
	}{
		{"unbeatable quads", "AsAh", "AdAcKd2s3h", 1.0},
		{"board plays for both", "2c3d", "AsKsQsJsTs", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Estimator{Samples: 300}.Estimate(randutil.New(5),
				deck.MustParseCards(tt.mine), deck.MustParseCards(tt.community), deck.FullDeck())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Equity())
		})
	}
}

func TestEstimateDoesNotMutateInputs(t *testing.T) {
	mine := deck.MustParseCards("KsKh")
	community := deck.MustParseCards("2c7d9h")
	pool := deck.NewDeck(randutil.New(3))
	pool.Shuffle()
	remaining := pool.Remaining()

	mineCopy := append([]deck.Card(nil), mine...)
	communityCopy := append([]deck.Card(nil), community...)
	remainingCopy := append([]deck.Card(nil), remaining...)

	for _, samples := range []int{50, 1000} {
		_, err := Estimator{Samples: samples, Workers: 4}.Estimate(randutil.New(9), mine, community, remaining)
		require.NoError(t, err)
	}

	assert.Equal(t, mineCopy, mine)
	assert.Equal(t, communityCopy, community)
	assert.Equal(t, remainingCopy, remaining)
}

func TestEstimateIsReproducible(t *testing.T) {
	mine := deck.MustParseCards("QdJd")
	community := deck.MustParseCards("Td9s2c")
	est := Estimator{Samples: 2000, Workers: 4}

	a, err := est.Estimate(randutil.New(77), mine, community, deck.FullDeck())
	require.NoError(t, err)
	b, err := est.Estimate(randutil.New(77), mine, community, deck.FullDeck())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 2000, a.Samples)
}

func TestEstimateIgnoresWorkerCount(t *testing.T) {
	mine := deck.MustParseCards("8h8c")
	community := deck.MustParseCards("Kd5s")

	var want EquityResult
	var wantNext uint64
	for i, workers := range []int{1, 2, 4, 0} {
		rng := randutil.New(7)
		res, err := Estimator{Workers: workers}.Estimate(rng, mine, community, deck.FullDeck())
		require.NoError(t, err)
		next := rng.Uint64()
		if i == 0 {
			want, wantNext = res, next
			continue
		}
		assert.Equal(t, want, res, "workers=%d", workers)
		assert.Equal(t, wantNext, next, "workers=%d left the rng elsewhere", workers)
	}
	assert.Equal(t, DefaultSamples, want.Samples)
}

func TestEstimateErrors(t *testing.T) {
	rng := randutil.New(1)
	mine := deck.MustParseCards("AsAh")

	_, err := Estimator{Samples: -1}.Estimate(rng, mine, nil, deck.FullDeck())
	assert.ErrorIs(t, err, ErrInvalidSamples)

	_, err = Estimator{}.Estimate(rng, mine[:1], nil, deck.FullDeck())
	assert.ErrorIs(t, err, ErrInvalidHole)

	_, err = Estimator{}.Estimate(rng, mine, nil, deck.MustParseCards("AsAh2c3d4h"))
	assert.ErrorIs(t, err, ErrNotEnoughCards)

	_, err = Estimator{}.Estimate(rng, mine, deck.MustParseCards("Ah2c3d"), deck.FullDeck())
	assert.ErrorIs(t, err, ErrDuplicateCard)
}

func TestEstimateContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Estimator{Samples: 1000, Workers: 2}.EstimateContext(ctx, randutil.New(1),
		deck.MustParseCards("AsAh"), nil, deck.FullDeck())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEquityFuncAdapter(t *testing.T) {
	var fn EquityFunc = Estimator{Samples: 200}.Equity
	p, err := fn(randutil.New(4), deck.MustParseCards("AsAh"), deck.MustParseCards("AdAcKd2s3h"), deck.FullDeck())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	var stub EquityFunc = func(*rand.Rand, []deck.Card, []deck.Card, []deck.Card) (float64, error) {
		return 0.42, nil
	}
	p, err = stub(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.42, p)
}

func TestEquityResultRates(t *testing.T) {
	r := EquityResult{Wins: 6, Ties: 2, Losses: 2, Samples: 10}
	assert.InDelta(t, 0.7, r.Equity(), 1e-9)
	assert.InDelta(t, 0.6, r.WinRate(), 1e-9)
	assert.InDelta(t, 0.2, r.TieRate(), 1e-9)

	var zero EquityResult
	assert.Zero(t, zero.Equity())
	lo, hi := zero.ConfidenceInterval()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
