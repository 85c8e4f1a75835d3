// Command holdemgym runs heads-up limit hold'em episodes against a scripted
// bot: batch simulation, a WebSocket environment server, interactive play and
// a few hand analysis tools.
package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/holdemgym/internal/game"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Simulate SimulateCmd      `cmd:"" help:"Run a batch of episodes against the bot"`
	Serve    ServeCmd         `cmd:"" help:"Serve the environment over WebSocket"`
	Play     PlayCmd          `cmd:"" help:"Play hands against the bot in the terminal"`
	Equity   EquityCmd        `cmd:"" help:"Estimate a hand's win probability against a random hand"`
	Eval     EvalCmd          `cmd:"" help:"Show the best five-card hand from hole and board cards"`
	History  HistoryCmd       `cmd:"" help:"Summarise a PHH session file"`
	Dataset  DatasetCmd       `cmd:"" help:"Inspect a transition store"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdemgym"),
		kong.Description("Heads-up limit hold'em environment for training agents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
			"agents":  strings.Join(game.AgentNames, ", "),
		},
		kong.Bind(&cli.Globals),
	)
	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
