package game

// ObservationSize is the length of the flattened observation vector.
const ObservationSize = 14

// Observation is the fixed-shape view given to the agent: seven
// (value, valid) pairs flattened in order.
//
//	[0:2]   agent win probability
//	[2:10]  bot wager for each round, valid only for completed rounds
//	[10:12] agent stack / initial stack
//	[12:14] bot stack / initial stack
type Observation [ObservationSize]float64

const (
	obsEquity     = 0
	obsBotHistory = 2
	obsAgentStack = 10
	obsBotStack   = 12
)

func newObservation(equity float64, s *GameState, initial int) Observation {
	var o Observation
	o.set(obsEquity, equity)
	for r := PreFlop; r <= River; r++ {
		if r < s.Round {
			o.set(obsBotHistory+2*int(r), s.BotHistory[r])
		}
	}
	o.set(obsAgentStack, float64(s.AgentChips)/float64(initial))
	o.set(obsBotStack, float64(s.BotChips)/float64(initial))
	return o
}

func (o *Observation) set(i int, v float64) {
	o[i] = v
	o[i+1] = 1
}

// Equity returns the agent's estimated win probability.
func (o Observation) Equity() float64 { return o[obsEquity] }

// BotHistory returns the bot's normalized wager in round r and whether it is
// visible yet.
func (o Observation) BotHistory(r Round) (float64, bool) {
	i := obsBotHistory + 2*int(r)
	return o[i], o[i+1] == 1
}

// AgentStack returns the agent's stack as a fraction of the initial stack.
func (o Observation) AgentStack() float64 { return o[obsAgentStack] }

// BotStack returns the bot's stack as a fraction of the initial stack.
func (o Observation) BotStack() float64 { return o[obsBotStack] }

// Slice returns the observation as a slice.
func (o Observation) Slice() []float64 {
	return o[:]
}
