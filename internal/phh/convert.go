package phh

import (
	"fmt"
	"time"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/game"
)

const defaultVariant = "NT"

// Options controls how a hand record is labelled.
type Options struct {
	Table     string
	AgentName string
	BotName   string
	Time      time.Time
}

func (o Options) name(p game.Player) string {
	switch {
	case p == game.Agent && o.AgentName != "":
		return o.AgentName
	case p == game.Bot && o.BotName != "":
		return o.BotName
	}
	return p.String()
}

// FromRecord converts a completed hand into PHH form. The dealer, who posts
// the small blind, is p1.
func FromRecord(h game.HandRecord, opts Options) *HandHistory {
	order := [2]game.Player{h.Dealer, h.Dealer.Opponent()}
	pos := func(p game.Player) int {
		if p == order[0] {
			return 0
		}
		return 1
	}
	hole := func(p game.Player) []deck.Card {
		if p == game.Agent {
			return h.AgentCards
		}
		return h.BotCards
	}
	start := func(p game.Player) int { return h.StartingStacks[p] }
	delta := func(p game.Player) int {
		if p == game.Agent {
			return h.Outcome.AgentDelta
		}
		return h.Outcome.BotDelta
	}

	hist := &HandHistory{
		Variant:           defaultVariant,
		Table:             opts.Table,
		SeatCount:         2,
		Seats:             []int{1, 2},
		Antes:             []int{0, 0},
		BlindsOrStraddles: []int{h.SmallBlind, h.BigBlind},
		MinBet:            h.MinBet,
		StartingStacks:    make([]int, 2),
		FinishingStacks:   make([]int, 2),
		Winnings:          make([]int, 2),
		Actions:           make([]string, 0, len(h.Actions)+8),
		Players:           make([]string, 2),
		HandID:            h.ID,
		Board:             make([]string, 0, len(h.Community)),
	}
	hist.setTimestamp(opts.Time)

	for i, p := range order {
		hist.StartingStacks[i] = start(p)
		hist.FinishingStacks[i] = start(p) + delta(p)
		hist.Players[i] = opts.name(p)
		hist.Actions = append(hist.Actions, fmt.Sprintf("d dh p%d %s", i+1, joinCodes(hole(p))))
	}

	// Per-round contributions, seeded with the blinds.
	round := game.PreFlop
	contrib := [2]int{h.SmallBlind, h.BigBlind}
	spent := contrib
	dealt := 0
	dealTo := func(r game.Round) {
		n := min(boardCards(r), len(h.Community))
		if n > dealt {
			hist.Actions = append(hist.Actions, "d db "+joinCodes(h.Community[dealt:n]))
			for _, c := range h.Community[dealt:n] {
				hist.Board = append(hist.Board, c.Code())
			}
			dealt = n
		}
	}

	for _, a := range h.Actions {
		if a.Round > round {
			round = a.Round
			dealTo(round)
			contrib = [2]int{}
		}
		i := pos(a.Player)
		contrib[i] += a.Paid
		spent[i] += a.Paid

		action := a.Action
		if action == game.Raise && a.Paid == 0 {
			action = game.Call
		}
		if s, ok := FormatAction(i, action, contrib[i]); ok {
			hist.Actions = append(hist.Actions, s)
		}
	}
	if h.Outcome.Showdown {
		dealTo(game.River)
		for i, p := range order {
			hist.Actions = append(hist.Actions, fmt.Sprintf("p%d sm %s", i+1, joinCodes(hole(p))))
		}
	}

	for i, p := range order {
		hist.Winnings[i] = max(delta(p)+spent[i], 0)
	}
	return hist
}

// boardCards is the number of community cards visible in round r.
func boardCards(r game.Round) int {
	switch r {
	case game.Flop:
		return 3
	case game.Turn:
		return 4
	case game.River:
		return 5
	default:
		return 0
	}
}

func joinCodes(cards []deck.Card) string {
	b := make([]byte, 0, 2*len(cards))
	for _, c := range cards {
		b = append(b, c.Code()...)
	}
	return string(b)
}
