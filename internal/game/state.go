package game

import (
	"slices"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/evaluator"
)

// GameState is the per-hand table state. Only the Env mutates it.
type GameState struct {
	AgentChips int
	BotChips   int
	Pot        int
	AgentBet   int
	BotBet     int
	CurrentBet int // bet-to-call level for this round

	AgentCards []deck.Card
	BotCards   []deck.Card
	Community  []deck.Card

	Round      Round
	Active     [2]bool // indexed by Player
	Dealer     Player
	SmallBlind int
	BigBlind   int

	// BotHistory is the bot's wager per round as a fraction of the initial
	// stack.
	BotHistory [NumRounds]float64
}

// Clone returns a deep copy.
func (s GameState) Clone() GameState {
	s.AgentCards = slices.Clone(s.AgentCards)
	s.BotCards = slices.Clone(s.BotCards)
	s.Community = slices.Clone(s.Community)
	return s
}

// Owed returns what p must add to match the current bet.
func (s *GameState) Owed(p Player) int {
	return max(s.CurrentBet-*s.bet(p), 0)
}

func (s *GameState) chips(p Player) *int {
	if p == Agent {
		return &s.AgentChips
	}
	return &s.BotChips
}

func (s *GameState) bet(p Player) *int {
	if p == Agent {
		return &s.AgentBet
	}
	return &s.BotBet
}

// pay moves up to amount from p's stack into the pot and returns what was
// actually paid.
func (s *GameState) pay(p Player, amount int) int {
	chips := s.chips(p)
	paid := max(min(amount, *chips), 0)
	*chips -= paid
	*s.bet(p) += paid
	s.Pot += paid
	return paid
}

// ActionRecord is one entry in a hand's action log.
type ActionRecord struct {
	Player   Player
	Round    Round
	Action   Action
	Paid     int     // chips put in by this action
	Signal   float64 // the agent's raw signal; zero for the bot
	Equity   float64 // the actor's estimate, when one was computed
	PotAfter int
}

// Outcome summarises a finished hand.
type Outcome struct {
	Winner     Player // NoPlayer on a split pot
	Pot        int
	Showdown   bool
	Round      Round
	AgentRank  evaluator.HandRank
	BotRank    evaluator.HandRank
	AgentDelta int
	BotDelta   int
	Reward     float64
}

// HandRecord is the full history of one hand, handed to recorders when the
// hand completes.
type HandRecord struct {
	ID             string
	Number         int
	Dealer         Player
	MinBet         int
	InitialStack   int
	SmallBlind     int
	BigBlind       int
	StartingStacks [2]int // agent, bot before blinds
	AgentCards     []deck.Card
	BotCards       []deck.Card
	Community      []deck.Card
	Actions        []ActionRecord
	Outcome        Outcome
}

// Recorder receives every completed hand.
type Recorder interface {
	RecordHand(h HandRecord) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(h HandRecord) error

func (f RecorderFunc) RecordHand(h HandRecord) error { return f(h) }
