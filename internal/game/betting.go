package game

// Round represents the betting round
type Round int

const (
	PreFlop Round = iota
	Flop
	Turn
	River
)

// NumRounds is the number of betting rounds in a hand.
const NumRounds = 4

func (r Round) String() string {
	if r < PreFlop || r > River {
		return "unknown"
	}
	return [...]string{"preflop", "flop", "turn", "river"}[r]
}

// cardsFor returns how many community cards are dealt on entering r.
func (r Round) cardsFor() int {
	if r == Flop {
		return 3
	}
	return 1
}

// Player identifies a seat in the heads-up game.
type Player int

const (
	// NoPlayer is the winner of a split pot.
	NoPlayer Player = iota - 1
	Agent
	Bot
)

func (p Player) String() string {
	switch p {
	case Agent:
		return "agent"
	case Bot:
		return "bot"
	default:
		return "none"
	}
}

// Opponent returns the other seat.
func (p Player) Opponent() Player {
	if p == Agent {
		return Bot
	}
	return Agent
}

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
)

func (a Action) String() string {
	if a < Fold || a > Raise {
		return "unknown"
	}
	return [...]string{"fold", "check", "call", "raise"}[a]
}

// Decision is a concrete move. Amount is the number of chips a raise puts
// in; it is ignored for other actions.
type Decision struct {
	Action Action
	Amount int
}

func FoldDecision() Decision  { return Decision{Action: Fold} }
func CheckDecision() Decision { return Decision{Action: Check} }
func CallDecision() Decision  { return Decision{Action: Call} }

func RaiseDecision(amount int) Decision {
	return Decision{Action: Raise, Amount: amount}
}
