// Package simulator plays batches of episodes between an agent and the bot
// and aggregates the rewards.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdemgym/internal/evaluator"
	"github.com/lox/holdemgym/internal/game"
	"github.com/lox/holdemgym/internal/handid"
	"github.com/lox/holdemgym/internal/randutil"
	"github.com/lox/holdemgym/internal/statistics"
	"github.com/lox/holdemgym/internal/store"
)

// TimeoutSignal is sent on the agent's behalf when it misses a decision
// deadline: a check when nothing is owed, otherwise a fold.
const TimeoutSignal = 0.0

// AgentFactory builds the agent for one session from the session's rng.
type AgentFactory func(rng *rand.Rand) (game.Agent, error)

// Config holds configuration for running simulations
type Config struct {
	Episodes int
	Seed     int64

	// SessionLength is the number of consecutive hands played on one Env,
	// with stacks carried between them. Defaults to 1.
	SessionLength int

	// Concurrency bounds how many sessions run at once. Defaults to
	// GOMAXPROCS.
	Concurrency int

	Game   game.Config
	Policy game.Policy // nil selects the threshold policy

	Agent        string       // built-in agent name, see game.NewAgent
	AgentFactory AgentFactory // overrides Agent when set

	// DecisionTimeout bounds each agent decision; zero disables it.
	DecisionTimeout time.Duration

	Recorders []game.Recorder
	Store     *store.Store

	// Progress, if set, is called after every finished episode. It may be
	// called from several goroutines.
	Progress func(done, total int)

	Logger *log.Logger
	Clock  quartz.Clock
}

// Result is the outcome of a run.
type Result struct {
	Stats     *statistics.Statistics
	Timeouts  int
	Rollovers int
	Elapsed   time.Duration
}

// Simulator runs episodes
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.SessionLength <= 0 {
		config.SessionLength = 1
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}
	if config.Policy == nil {
		config.Policy = game.DefaultThresholdPolicy()
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.AgentFactory == nil {
		name, minBet := config.Agent, config.Game.MinBet
		config.AgentFactory = func(rng *rand.Rand) (game.Agent, error) {
			return game.NewAgent(name, minBet, rng)
		}
	}
	return &Simulator{config: config}
}

type session struct {
	results   []statistics.EpisodeResult
	timeouts  int
	rollovers int
}

// Run plays every episode and returns the aggregated statistics. Sessions
// are independent, so for a fixed seed the result does not depend on
// Concurrency.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.config
	if cfg.Episodes <= 0 {
		return nil, errors.New("simulator: episodes must be positive")
	}
	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}

	start := cfg.Clock.Now()
	sessions := (cfg.Episodes + cfg.SessionLength - 1) / cfg.SessionLength
	out := make([]session, sessions)
	var finished atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range sessions {
		hands := min(cfg.SessionLength, cfg.Episodes-i*cfg.SessionLength)
		g.Go(func() error {
			res, err := s.runSession(gctx, i, hands, func() {
				if cfg.Progress != nil {
					cfg.Progress(int(finished.Add(1)), cfg.Episodes)
				}
			})
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Stats: &statistics.Statistics{}}
	for _, sess := range out {
		for _, r := range sess.results {
			result.Stats.Add(r)
		}
		result.Timeouts += sess.timeouts
		result.Rollovers += sess.rollovers
	}
	if err := result.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	result.Elapsed = cfg.Clock.Since(start)

	cfg.Logger.Info("Simulation complete",
		"episodes", result.Stats.Hands,
		"mean", fmt.Sprintf("%.4f", result.Stats.Mean()),
		"timeouts", result.Timeouts,
		"elapsed", result.Elapsed)
	return result, nil
}

func (s *Simulator) runSession(ctx context.Context, idx, hands int, done func()) (session, error) {
	cfg := s.config
	seed := randutil.Derive(cfg.Seed, idx)
	rng := randutil.New(seed)
	logger := cfg.Logger.With("session", idx)

	agent, err := cfg.AgentFactory(randutil.Fork(rng))
	if err != nil {
		return session{}, err
	}
	ids := handid.NewGenerator(randutil.NewReader(randutil.Fork(rng)))

	opts := []game.Option{
		game.WithRNG(rng),
		game.WithLogger(logger),
		game.WithPolicy(cfg.Policy),
		game.WithEquity(evaluator.Estimator{Samples: cfg.Game.EquitySamples, Workers: 1}.Equity),
		game.WithHandIDs(ids.Generate),
	}
	for _, r := range cfg.Recorders {
		opts = append(opts, game.WithRecorder(r))
	}
	env, err := game.NewEnv(cfg.Game, opts...)
	if err != nil {
		return session{}, err
	}

	st := &seat{agent: agent}
	var sess session
	for range hands {
		if err := ctx.Err(); err != nil {
			return sess, err
		}
		r, timeouts, err := s.playEpisode(ctx, env, st, seed)
		if err != nil {
			return sess, err
		}
		sess.results = append(sess.results, r)
		sess.timeouts += timeouts
		done()
	}
	sess.rollovers = env.Rollovers()
	return sess, st.settle(ctx)
}

func (s *Simulator) playEpisode(ctx context.Context, env *game.Env, st *seat, seed int64) (statistics.EpisodeResult, int, error) {
	cfg := s.config
	obs, err := env.Reset()
	if err != nil {
		return statistics.EpisodeResult{}, 0, err
	}

	var (
		transitions []store.Transition
		timeouts    int
		step        game.StepResult
	)
	for !step.Done {
		x, timedOut, err := s.decide(ctx, st, obs)
		if err != nil {
			return statistics.EpisodeResult{}, timeouts, err
		}
		if timedOut {
			timeouts++
		}
		step, err = env.Step(x)
		if err != nil {
			return statistics.EpisodeResult{}, timeouts, err
		}
		transitions = append(transitions, store.Transition{
			Step:    len(transitions),
			Obs:     obs.Slice(),
			Action:  x,
			Reward:  step.Reward,
			NextObs: step.Observation.Slice(),
			Done:    step.Done,
		})
		obs = step.Observation
	}

	rec := env.Record()
	out := step.Outcome
	result := statistics.EpisodeResult{
		Reward:        out.Reward,
		NetChips:      out.AgentDelta,
		Seed:          seed,
		AgentDealer:   rec.Dealer == game.Agent,
		Showdown:      out.Showdown,
		Split:         out.Winner == game.NoPlayer,
		Pot:           out.Pot,
		StreetReached: int(out.Round),
		Steps:         len(transitions),
	}

	if cfg.Store != nil {
		ep := store.Episode{
			ID:          rec.ID,
			Seed:        seed,
			Reward:      out.Reward,
			Steps:       len(transitions),
			Showdown:    out.Showdown,
			Pot:         out.Pot,
			AgentDealer: result.AgentDealer,
		}
		if err := cfg.Store.SaveEpisode(ctx, ep, transitions); err != nil {
			return result, timeouts, err
		}
	}
	return result, timeouts, nil
}

type answer struct {
	x   float64
	err error
}

// seat serialises calls to one session's agent. A call abandoned at its
// deadline stays pending until it returns, and the next decision waits for
// it, so an agent never sees overlapping Act calls.
type seat struct {
	agent   game.Agent
	pending <-chan answer
}

// settle waits for an abandoned call to finish and discards its answer.
func (st *seat) settle(ctx context.Context) error {
	if st.pending == nil {
		return nil
	}
	select {
	case <-st.pending:
		st.pending = nil
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decide asks the agent for a signal, substituting TimeoutSignal when the
// deadline passes first.
func (s *Simulator) decide(ctx context.Context, st *seat, obs game.Observation) (float64, bool, error) {
	if err := st.settle(ctx); err != nil {
		return 0, false, err
	}
	if s.config.DecisionTimeout <= 0 {
		x, err := st.agent.Act(ctx, obs)
		return x, false, err
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	timeoutFired := make(chan struct{})
	timer := s.config.Clock.AfterFunc(s.config.DecisionTimeout, func() {
		close(timeoutFired)
	})
	defer timer.Stop()

	answers := make(chan answer, 1)
	go func() {
		x, err := st.agent.Act(dctx, obs)
		answers <- answer{x, err}
	}()

	select {
	case a := <-answers:
		return a.x, false, a.err
	case <-timeoutFired:
		s.config.Logger.Warn("Decision timeout, checking or folding for agent", "timeout", s.config.DecisionTimeout)
		st.pending = answers
		return TimeoutSignal, true, nil
	case <-ctx.Done():
		st.pending = answers
		return 0, false, ctx.Err()
	}
}

// PrintSummary writes a report of the run.
func PrintSummary(w io.Writer, r *Result, opponent string) {
	stats := r.Stats
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS vs %s ===\n", opponent)
	fmt.Fprintf(w, "Episodes played: %d (%d decisions, %d timeouts, %d rollovers)\n",
		stats.Hands, stats.Steps, r.Timeouts, r.Rollovers)

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f reward/episode\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.4f\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f]\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.3f, P25=%.3f, P75=%.3f, P95=%.3f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
	fmt.Fprintf(w, "Net chips: %+d\n", stats.NetChip)

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(w, "Won %d (%.1f%%), lost %d, split %d\n",
		stats.Wins, stats.WinRate()*100, stats.Losses, stats.Splits)
	if wins := stats.ShowdownWins + stats.NonShowdownWins; wins > 0 {
		fmt.Fprintf(w, "Winning episodes: %d showdown (%.1f%%), %d bot folded (%.1f%%)\n",
			stats.ShowdownWins, float64(stats.ShowdownWins)/float64(wins)*100,
			stats.NonShowdownWins, float64(stats.NonShowdownWins)/float64(wins)*100)
	}
	n := float64(stats.Hands)
	fmt.Fprintf(w, "Showdown: %.4f reward/episode, non-showdown: %.4f (sum %.4f)\n",
		stats.ShowdownReward/n, stats.FoldReward/n, (stats.ShowdownReward+stats.FoldReward)/n)
	fmt.Fprintf(w, "Max pot observed: %d chips\n", stats.MaxPot)

	fmt.Fprintf(w, "\n=== STREET REACHED ===\n")
	for r, count := range stats.Streets {
		fmt.Fprintf(w, "%-8s %d (%.1f%%)\n", game.Round(r), count, float64(count)/n*100)
	}

	fmt.Fprintf(w, "\n=== POSITION ANALYSIS ===\n")
	fmt.Fprintf(w, "Agent dealer: %d episodes, %.4f reward/episode\n", stats.Dealer.Hands, stats.Dealer.Mean())
	fmt.Fprintf(w, "Agent big blind: %d episodes, %.4f reward/episode\n", stats.NonDealer.Hands, stats.NonDealer.Mean())
}
