package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemgym/internal/config"
	"github.com/lox/holdemgym/internal/phh"
	"github.com/lox/holdemgym/internal/randutil"
	"github.com/lox/holdemgym/internal/simulator"
	"github.com/lox/holdemgym/internal/store"
)

// SimulateCmd plays a batch of episodes and prints the reward statistics.
// Flags override the simulation block of the config file.
type SimulateCmd struct {
	Episodes    int            `short:"n" help:"Number of episodes"`
	Seed        *int64         `help:"RNG seed (0 or unset for time based)"`
	Agent       string         `short:"a" help:"Built-in agent: ${agents}"`
	Concurrency int            `help:"Sessions run in parallel (default GOMAXPROCS)"`
	Session     int            `default:"1" help:"Hands per session; stacks carry over within a session"`
	Timeout     *time.Duration `help:"Per-decision timeout, 0 to disable"`
	HandHistory string         `name:"hand-history" type:"path" help:"Directory for PHH session files"`
	PerHand     bool           `help:"Also write one .phh file per hand"`
	Store       string         `type:"path" help:"SQLite file to record transitions in"`
	NoProgress  bool           `help:"Hide the progress bar"`
}

// apply copies the flags that were set onto cfg.
func (c *SimulateCmd) apply(cfg *config.Config) {
	s := &cfg.Simulation
	if c.Episodes > 0 {
		s.Episodes = c.Episodes
	}
	if c.Seed != nil {
		s.Seed = *c.Seed
	}
	if c.Agent != "" {
		s.Agent = c.Agent
	}
	if c.Concurrency > 0 {
		s.Concurrency = c.Concurrency
	}
	if c.Timeout != nil {
		s.DecisionTimeout = c.Timeout.String()
	}
	if c.HandHistory != "" {
		s.HandHistoryDir = c.HandHistory
	}
	if c.Store != "" {
		s.Store = c.Store
	}
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := g.logger(os.Stderr, "warn")
	if err != nil {
		return err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	timeout, err := cfg.DecisionTimeout()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	seed := randutil.SeedOrNow(cfg.Simulation.Seed)
	clock := quartz.NewReal()
	simCfg := simulator.Config{
		Episodes:        cfg.Simulation.Episodes,
		Seed:            seed,
		SessionLength:   c.Session,
		Concurrency:     cfg.Simulation.Concurrency,
		Game:            cfg.Game(),
		Policy:          policy,
		Agent:           cfg.Simulation.Agent,
		DecisionTimeout: timeout,
		Logger:          logger,
		Clock:           clock,
	}

	if dir := cfg.Simulation.HandHistoryDir; dir != "" {
		w, err := phh.NewWriter(phh.WriterConfig{
			Dir:        dir,
			FlushEvery: 100,
			PerHand:    c.PerHand,
			Options: phh.Options{
				Table:     fmt.Sprintf("sim-%d", seed),
				AgentName: cfg.Simulation.Agent,
				BotName:   cfg.Bot.Policy,
			},
		}, logger)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "hand history", w.Close)
		simCfg.Recorders = append(simCfg.Recorders, w)
		logger.Info("Writing hand histories", "path", w.Path())
	}

	if path := cfg.Simulation.Store; path != "" {
		st, err := store.Open(ctx, path, logger)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "store", st.Close)
		simCfg.Store = st
	}

	if !c.NoProgress {
		simCfg.Progress = newProgressBar(os.Stderr, clock).Report
	}

	fmt.Printf("Starting simulation: %d episodes, %s agent vs %s bot (seed: %d)\n",
		simCfg.Episodes, simCfg.Agent, cfg.Bot.Policy, seed)

	result, err := simulator.New(simCfg).Run(ctx)
	if err != nil {
		return err
	}

	simulator.PrintSummary(os.Stdout, result, cfg.Bot.Policy)
	fmt.Printf("\nCompleted in %v (%.0f episodes/sec)\n",
		result.Elapsed.Truncate(time.Millisecond), float64(result.Stats.Hands)/result.Elapsed.Seconds())

	if simCfg.Store != nil {
		sum, err := simCfg.Store.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Store %s: %d episodes, %d transitions\n", cfg.Simulation.Store, sum.Episodes, sum.Transitions)
	}
	return nil
}

func closeLogged(logger *log.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("Close failed", "what", what, "error", err)
	}
}
