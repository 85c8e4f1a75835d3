package main

import (
	"net"
	"os"
	"strconv"

	"github.com/lox/holdemgym/internal/config"
	"github.com/lox/holdemgym/internal/phh"
	"github.com/lox/holdemgym/internal/randutil"
	"github.com/lox/holdemgym/internal/server"
)

// ServeCmd exposes the environment to remote learners over WebSocket.
type ServeCmd struct {
	Addr        string `help:"Listen address as host:port (default from config)"`
	Seed        *int64 `help:"Server seed; connection n plays with a seed derived from it"`
	HandHistory string `name:"hand-history" type:"path" help:"Directory for PHH session files"`
}

func (c *ServeCmd) addr(cfg *config.ServerSettings) string {
	if c.Addr != "" {
		return c.Addr
	}
	return net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := g.logger(os.Stderr, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	seed := randutil.SeedOrNow(cfg.Server.Seed)
	srvCfg := server.Config{
		Addr:   c.addr(&cfg.Server),
		Seed:   seed,
		Game:   cfg.Game(),
		Policy: policy,
	}

	if c.HandHistory != "" {
		w, err := phh.NewWriter(phh.WriterConfig{
			Dir:     c.HandHistory,
			Options: phh.Options{Table: "server", BotName: cfg.Bot.Policy},
		}, logger)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "hand history", w.Close)
		srvCfg.Recorders = append(srvCfg.Recorders, w)
	}

	srv, err := server.NewServer(srvCfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting holdemgym server",
		"address", srvCfg.Addr,
		"seed", seed,
		"initial_stack", srvCfg.Game.InitialStack,
		"min_bet", srvCfg.Game.MinBet,
		"policy", cfg.Bot.Policy)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return srv.ListenAndServe(ctx)
}
