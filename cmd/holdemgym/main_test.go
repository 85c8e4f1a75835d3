package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/config"
	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/evaluator"
	"github.com/lox/holdemgym/internal/phh"
	"github.com/lox/holdemgym/internal/store"
)

func TestParseSituation(t *testing.T) {
	tests := []struct {
		name     string
		hand     string
		board    string
		hasError bool
	}{
		{"hole only", "AsKs", "", false},
		{"with flop", "As Ks", "Td7s8h", false},
		{"too many hole cards", "AsKsQs", "", true},
		{"too few hole cards", "As", "", true},
		{"invalid card", "AsXy", "", true},
		{"board too long", "AsKs", "2c3c4c5c6c7c", true},
		{"duplicate across hand and board", "AsKs", "AsQdJd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hole, board, err := parseSituation(tt.hand, tt.board)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, hole, 2)
			assert.Len(t, board, len(tt.board)/2)
		})
	}
}

func TestEvaluateHands(t *testing.T) {
	results, board, err := evaluateHands([]string{"AsKs", "7c2d"}, "QsJsTs2h3d")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, board, 5)
	assert.Equal(t, evaluator.RoyalFlush, results[0].rank.Category)
	assert.Equal(t, evaluator.HighCard, results[1].rank.Category)

	var out bytes.Buffer
	renderEval(&out, results, board)
	assert.Contains(t, out.String(), "Royal Flush")
	assert.Contains(t, out.String(), "wins")
	assert.NotContains(t, out.String(), "ties")

	_, _, err = evaluateHands([]string{"AsKs", "AsQd"}, "")
	assert.ErrorIs(t, err, deck.ErrDuplicateCard)

	_, _, err = evaluateHands([]string{"AsKsQs"}, "")
	assert.Error(t, err)
}

func TestRenderEvalTie(t *testing.T) {
	results, board, err := evaluateHands([]string{"2c3d", "2d3c"}, "AsKsQsJhTd")
	require.NoError(t, err)

	var out bytes.Buffer
	renderEval(&out, results, board)
	assert.Contains(t, out.String(), "ties")
	assert.Contains(t, out.String(), "Straight")
}

func TestRenderEquity(t *testing.T) {
	hole := deck.MustParseCards("AsAh")
	res := evaluator.EquityResult{Wins: 85, Ties: 2, Losses: 13, Samples: 100}

	var out bytes.Buffer
	renderEquity(&out, hole, nil, res, 1500*time.Microsecond)
	assert.Contains(t, out.String(), "As Ah")
	assert.Contains(t, out.String(), "86.0%")
	assert.Contains(t, out.String(), "100 samples in 1ms")
	assert.NotContains(t, out.String(), "board")
}

func TestProgressBar(t *testing.T) {
	clock := quartz.NewMock(t)
	var out bytes.Buffer
	bar := newProgressBar(&out, clock)

	bar.Report(1, 200)
	first := out.Len()
	assert.Contains(t, out.String(), "1/200")

	// Same whole percentage: no redraw.
	bar.Report(1, 200)
	assert.Equal(t, first, out.Len())

	clock.Advance(time.Second)
	bar.Report(200, 200)
	assert.Contains(t, out.String(), "200/200 (200/sec)\n")

	bar.Report(1, 0)
}

func TestSimulateApply(t *testing.T) {
	cfg := config.DefaultConfig()
	seed := int64(0)
	timeout := 250 * time.Millisecond
	cmd := SimulateCmd{Episodes: 7, Seed: &seed, Agent: "fold", Timeout: &timeout, Store: "x.db"}
	cfg.Simulation.Seed = 99
	cmd.apply(cfg)

	assert.Equal(t, 7, cfg.Simulation.Episodes)
	assert.Equal(t, int64(0), cfg.Simulation.Seed)
	assert.Equal(t, "fold", cfg.Simulation.Agent)
	assert.Equal(t, "250ms", cfg.Simulation.DecisionTimeout)
	assert.Equal(t, "x.db", cfg.Simulation.Store)
	assert.Empty(t, cfg.Simulation.HandHistoryDir)

	// Unset flags keep the file values.
	cfg = config.DefaultConfig()
	(&SimulateCmd{}).apply(cfg)
	assert.Equal(t, config.DefaultConfig(), cfg)

	// An explicit zero turns the deadline off.
	var zero time.Duration
	cfg = config.DefaultConfig()
	(&SimulateCmd{Timeout: &zero}).apply(cfg)
	assert.Equal(t, "0s", cfg.Simulation.DecisionTimeout)
	d, err := cfg.DecisionTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestSimulateTimeoutFlag(t *testing.T) {
	parse := func(args ...string) *SimulateCmd {
		var cmd SimulateCmd
		parser, err := kong.New(&cmd, kong.Vars{"agents": "random"})
		require.NoError(t, err)
		_, err = parser.Parse(args)
		require.NoError(t, err)
		return &cmd
	}

	assert.Nil(t, parse().Timeout)

	cmd := parse("--timeout", "0")
	require.NotNil(t, cmd.Timeout)
	assert.Zero(t, *cmd.Timeout)

	cmd = parse("--timeout", "2s")
	require.NotNil(t, cmd.Timeout)
	assert.Equal(t, 2*time.Second, *cmd.Timeout)
}

func TestGlobalsLogger(t *testing.T) {
	g := Globals{}
	logger, err := g.logger(os.Stderr, "warn")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	g.LogLevel = "loud"
	_, err = g.logger(os.Stderr, "warn")
	assert.Error(t, err)
}

func TestSimulateWritesHistoryAndStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "holdemgym.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
env {
  equity_samples = 100
}

simulation {
  episodes = 6
  seed     = 11
  agent    = "equity"
}
`), 0o644))

	histDir := filepath.Join(dir, "hands")
	dbPath := filepath.Join(dir, "episodes.db")
	g := &Globals{Config: cfgPath, LogLevel: "error"}
	cmd := &SimulateCmd{Session: 3, HandHistory: histDir, Store: dbPath, NoProgress: true}
	require.NoError(t, cmd.Run(g))

	hands, err := phh.ReadSession(filepath.Join(histDir, "session.phhs"))
	require.NoError(t, err)
	assert.Len(t, hands, 6)

	st, err := store.Open(context.Background(), dbPath, nil)
	require.NoError(t, err)
	sum, err := st.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Episodes)
	assert.Positive(t, sum.Transitions)
	require.NoError(t, st.Close())

	require.NoError(t, (&HistoryCmd{File: filepath.Join(histDir, "session.phhs"), Limit: 2}).Run())
	require.NoError(t, (&DatasetCmd{Store: dbPath, Sample: 3}).Run(g))
}

func TestRenderHistory(t *testing.T) {
	hands := []*phh.HandHistory{
		{
			HandID:          "h1",
			Players:         []string{"agent", "bot"},
			StartingStacks:  []int{1000, 1000},
			FinishingStacks: []int{1030, 970},
			Winnings:        []int{60, 0},
			Actions:         []string{"d dh p1 AsKs", "d dh p2 7c2d", "p1 cc"},
		},
		{
			HandID:          "h2",
			Players:         []string{"bot", "agent"},
			StartingStacks:  []int{970, 1030},
			FinishingStacks: []int{985, 1015},
			Winnings:        []int{15, 0},
			Actions:         []string{"p1 cbr 10", "p2 f"},
		},
	}

	var out bytes.Buffer
	require.NoError(t, renderHistory(&out, hands, 0))
	s := out.String()
	assert.Contains(t, s, "agent v bot")
	assert.Contains(t, s, "2 hands")
	assert.Contains(t, s, "agent +15")
	assert.Contains(t, s, "bot -15")

	assert.Equal(t, "agent", handWinner(hands[0]))
	assert.Equal(t, "split", handWinner(&phh.HandHistory{Players: []string{"a", "b"}, Winnings: []int{10, 10}}))
	assert.Equal(t, "-", handWinner(&phh.HandHistory{}))

	assert.Error(t, renderHistory(&out, nil, 0))
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[0.5 1 0.333]", formatVector(store.Vector{0.5, 1, 1.0 / 3}))
}
