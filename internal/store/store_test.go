package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/randutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "episodes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTransitions(n int) []Transition {
	ts := make([]Transition, n)
	for i := range ts {
		ts[i] = Transition{
			Step:    i,
			Obs:     Vector{0.5, 1, float64(i)},
			Action:  float64(10 * i),
			NextObs: Vector{0.6, 1, float64(i + 1)},
			Done:    i == n-1,
		}
	}
	ts[n-1].Reward = 0.04
	return ts
}

func TestSaveAndLoadEpisode(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ep := Episode{ID: "hand-1", Seed: 99, Reward: 0.04, Steps: 3, Showdown: true, Pot: 40, AgentDealer: true}
	require.NoError(t, s.SaveEpisode(ctx, ep, testTransitions(3)))

	got, err := s.Episode(ctx, "hand-1")
	require.NoError(t, err)
	assert.Equal(t, ep, got)

	ts, err := s.Transitions(ctx, "hand-1")
	require.NoError(t, err)
	require.Len(t, ts, 3)
	for i, tr := range ts {
		assert.Equal(t, "hand-1", tr.EpisodeID)
		assert.Equal(t, i, tr.Step)
		assert.Equal(t, Vector{0.5, 1, float64(i)}, tr.Obs)
		assert.Equal(t, float64(10*i), tr.Action)
	}
	assert.True(t, ts[2].Done)
	assert.Equal(t, 0.04, ts[2].Reward)
}

func TestSaveEpisodeReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveEpisode(ctx, Episode{ID: "a", Reward: 1}, testTransitions(4)))
	require.NoError(t, s.SaveEpisode(ctx, Episode{ID: "a", Reward: -1}, testTransitions(1)))

	ep, err := s.Episode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, -1.0, ep.Reward)

	ts, err := s.Transitions(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, ts, 1)
}

func TestEpisodeNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Episode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Sample(context.Background(), 1, randutil.New(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryAndSample(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep := Episode{ID: fmt.Sprintf("hand-%d", i), Reward: float64(i) / 100, Showdown: i%2 == 0}
			assert.NoError(t, s.SaveEpisode(ctx, ep, testTransitions(2)))
		}()
	}
	wg.Wait()

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Episodes)
	assert.Equal(t, 16, sum.Transitions)
	assert.Equal(t, 4, sum.Showdowns)
	assert.InDelta(t, 0.035, sum.MeanReward, 1e-9)

	a, err := s.Sample(ctx, 5, randutil.New(3))
	require.NoError(t, err)
	b, err := s.Sample(ctx, 5, randutil.New(3))
	require.NoError(t, err)
	assert.Len(t, a, 5)
	assert.Equal(t, a, b)
}

func TestVectorScan(t *testing.T) {
	var v Vector
	require.NoError(t, v.Scan([]byte("[1,2.5]")))
	assert.Equal(t, Vector{1, 2.5}, v)
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
	assert.Error(t, v.Scan(42))

	val, err := Vector(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", val)
}
