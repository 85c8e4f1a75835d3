package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/holdemgym/internal/evaluator"
	"github.com/lox/holdemgym/internal/game"
	"github.com/lox/holdemgym/internal/handid"
	"github.com/lox/holdemgym/internal/phh"
	"github.com/lox/holdemgym/internal/randutil"
	"github.com/lox/holdemgym/internal/tui"
)

// PlayCmd seats the user in the agent's chair.
type PlayCmd struct {
	Seed        *int64 `help:"RNG seed (unset for time based)"`
	HandHistory string `name:"hand-history" type:"path" help:"Directory for PHH session files"`
	LogFile     string `type:"path" help:"Write logs here; the terminal belongs to the game"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger, err := g.logger(out, "info")
	if err != nil {
		return err
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
	}
	seed = randutil.SeedOrNow(seed)
	rng := randutil.New(seed)

	opts := []game.Option{
		game.WithRNG(rng),
		game.WithLogger(logger),
		game.WithEquity(evaluator.Estimator{Samples: cfg.Env.EquitySamples}.Equity),
		game.WithPolicy(policy),
		game.WithHandIDs(handid.NewGenerator(randutil.NewReader(randutil.Fork(rng))).Generate),
	}
	if c.HandHistory != "" {
		w, err := phh.NewWriter(phh.WriterConfig{
			Dir:     c.HandHistory,
			Options: phh.Options{Table: "play", AgentName: "human", BotName: cfg.Bot.Policy},
		}, logger)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "hand history", w.Close)
		opts = append(opts, game.WithRecorder(w))
	}

	env, err := game.NewEnv(cfg.Game(), opts...)
	if err != nil {
		return err
	}
	logger.Info("Starting interactive session", "seed", seed)

	model := tui.New(env, logger)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}

	hands, reward := model.Results()
	agent, bot := env.Stacks()
	fmt.Printf("Played %d hands, net reward %+.4f (stacks %d / %d, seed %d)\n", hands, reward, agent, bot, seed)
	return nil
}
