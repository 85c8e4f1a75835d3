package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/lox/holdemgym/internal/config"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"holdemgym.hcl" type:"path" env:"HOLDEMGYM_CONFIG" help:"HCL configuration file (missing file uses defaults)"`
	LogLevel string `env:"HOLDEMGYM_LOG_LEVEL" help:"Log level (debug|info|warn|error)"`
	NoColor  bool   `help:"Disable colored output"`
}

// load reads the configuration file.
func (g *Globals) load() (*config.Config, error) {
	return config.Load(g.Config)
}

// logger writes to w at the --log-level flag, falling back to def.
func (g *Globals) logger(w io.Writer, def string) (*log.Logger, error) {
	level := g.LogLevel
	if level == "" {
		level = def
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	}), nil
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
