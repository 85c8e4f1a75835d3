package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/lox/holdemgym/internal/phh"
)

// HistoryCmd summarises a PHH session written by simulate, serve or play.
type HistoryCmd struct {
	File  string `arg:"" type:"existingfile" help:"Path to a session.phhs file"`
	Limit int    `short:"n" help:"Maximum number of hands to list (0 = all)"`
}

func (c *HistoryCmd) Run() error {
	hands, err := phh.ReadSession(c.File)
	if err != nil {
		return err
	}
	if len(hands) == 0 {
		return fmt.Errorf("no hands found in %s", c.File)
	}
	return renderHistory(os.Stdout, hands, c.Limit)
}

// handWinner names the player with the largest winnings, or "split".
func handWinner(h *phh.HandHistory) string {
	best, count := 0, 0
	for _, w := range h.Winnings {
		switch {
		case w > best:
			best, count = w, 1
		case w == best && w > 0:
			count++
		}
	}
	if count == 0 {
		return "-"
	}
	if count > 1 {
		return "split"
	}
	i := slices.Index(h.Winnings, best)
	if i < len(h.Players) {
		return h.Players[i]
	}
	return fmt.Sprintf("p%d", i+1)
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func renderHistory(out io.Writer, hands []*phh.HandHistory, limit int) error {
	if len(hands) == 0 {
		return errors.New("no hands")
	}
	shown := hands
	if limit > 0 && limit < len(hands) {
		shown = hands[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("#"),
		headerStyle.Render("hand"),
		headerStyle.Render("players"),
		headerStyle.Render("pot"),
		headerStyle.Render("winner"),
		headerStyle.Render("actions"))
	for i, h := range shown {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\n",
			i+1, h.HandID, strings.Join(h.Players, " v "), sum(h.Winnings), handWinner(h), len(h.Actions))
	}
	w.Flush()

	// Net chips per player name across every hand in the file.
	net := make(map[string]int)
	var names []string
	for _, h := range hands {
		for i, name := range h.Players {
			if i >= len(h.StartingStacks) || i >= len(h.FinishingStacks) {
				continue
			}
			if _, ok := net[name]; !ok {
				names = append(names, name)
			}
			net[name] += h.FinishingStacks[i] - h.StartingStacks[i]
		}
	}

	fmt.Fprintf(out, "\n%s\n", headerStyle.Render(fmt.Sprintf("%d hands", len(hands))))
	for _, name := range names {
		style := winStyle
		if net[name] < 0 {
			style = tieStyle
		}
		fmt.Fprintf(out, "%s %s\n", handStyle.Render(name), style.Render(fmt.Sprintf("%+d", net[name])))
	}
	return nil
}
