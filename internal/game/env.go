package game

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/evaluator"
	"github.com/lox/holdemgym/internal/randutil"
)

var (
	ErrNoHand       = errors.New("no hand in progress: call Reset first")
	ErrHandComplete = errors.New("hand is complete: call Reset to start the next one")
)

// StepResult is what the agent gets back after each action.
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Outcome     *Outcome // set when Done
}

// Env runs heads-up hands between an external agent and the bot. Stacks
// carry over from hand to hand. An Env is not safe for concurrent use.
type Env struct {
	cfg       Config
	rng       *rand.Rand
	logger    *log.Logger
	equity    evaluator.EquityFunc
	policy    Policy
	recorders []Recorder
	handIDs   func() string

	firstDealer *Player

	agentStack int
	botStack   int
	hands      int
	rollovers  int

	deck   *deck.Deck
	state  GameState
	record HandRecord
	live   bool
	done   bool

	agentEquity float64
}

// Option configures an Env.
type Option func(*Env)

// WithRNG sets the random source for shuffles, dealer choice and equity
// sampling.
func WithRNG(rng *rand.Rand) Option {
	return func(e *Env) { e.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Env) { e.logger = logger }
}

// WithEquity replaces the Monte Carlo estimator used for both seats.
func WithEquity(fn evaluator.EquityFunc) Option {
	return func(e *Env) { e.equity = fn }
}

// WithPolicy replaces the bot's policy.
func WithPolicy(p Policy) Option {
	return func(e *Env) { e.policy = p }
}

// WithFirstDealer fixes the dealer of the first hand.
func WithFirstDealer(p Player) Option {
	return func(e *Env) { e.firstDealer = &p }
}

// WithRecorder adds a recorder that receives each completed hand.
func WithRecorder(r Recorder) Option {
	return func(e *Env) { e.recorders = append(e.recorders, r) }
}

// WithHandIDs sets the generator for hand identifiers.
func WithHandIDs(next func() string) Option {
	return func(e *Env) { e.handIDs = next }
}

// NewEnv creates an environment. Without options it uses a time-seeded rng,
// a discarding logger, the threshold policy and the default estimator.
func NewEnv(cfg Config, opts ...Option) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Env{
		cfg:        cfg,
		agentStack: cfg.InitialStack,
		botStack:   cfg.InitialStack,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = randutil.New(randutil.SeedOrNow(0))
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.equity == nil {
		e.equity = evaluator.Estimator{Samples: cfg.EquitySamples}.Equity
	}
	if e.policy == nil {
		e.policy = DefaultThresholdPolicy()
	}
	if e.handIDs == nil {
		e.handIDs = func() string { return strconv.Itoa(e.hands) }
	}
	return e, nil
}

// Config returns the table configuration.
func (e *Env) Config() Config { return e.cfg }

// Stacks returns the running chip counts of the agent and the bot.
func (e *Env) Stacks() (agent, bot int) {
	if e.live && !e.done {
		return e.state.AgentChips, e.state.BotChips
	}
	return e.agentStack, e.botStack
}

// Hands returns the number of hands dealt.
func (e *Env) Hands() int { return e.hands }

// Rollovers returns how many times the stacks were restored.
func (e *Env) Rollovers() int { return e.rollovers }

// State returns a copy of the current hand state.
func (e *Env) State() GameState { return e.state.Clone() }

// Record returns a copy of the current hand's history.
func (e *Env) Record() HandRecord {
	r := e.record
	r.Actions = append([]ActionRecord(nil), r.Actions...)
	return r
}

// Reset starts a new hand and returns the agent's first observation.
func (e *Env) Reset() (Observation, error) {
	if e.live && !e.done {
		e.logger.Warn("abandoning hand in progress", "hand", e.record.ID)
		e.agentStack, e.botStack = e.record.StartingStacks[Agent], e.record.StartingStacks[Bot]
	}
	e.live, e.done = false, false

	bb := e.cfg.BigBlind()
	if e.agentStack < bb || e.botStack < bb {
		e.rollovers++
		e.logger.Info("stacks restored", "agent", e.agentStack, "bot", e.botStack, "initial", e.cfg.InitialStack)
		e.agentStack, e.botStack = e.cfg.InitialStack, e.cfg.InitialStack
	}

	dealer := e.nextDealer()
	e.hands++

	e.deck = deck.NewDeck(e.rng)
	e.deck.Shuffle()
	agentCards, err := e.deck.DealN(2)
	if err != nil {
		return Observation{}, fmt.Errorf("deal agent cards: %w", err)
	}
	botCards, err := e.deck.DealN(2)
	if err != nil {
		return Observation{}, fmt.Errorf("deal bot cards: %w", err)
	}

	e.state = GameState{
		AgentChips: e.agentStack,
		BotChips:   e.botStack,
		AgentCards: agentCards,
		BotCards:   botCards,
		Community:  make([]deck.Card, 0, 5),
		Round:      PreFlop,
		Active:     [2]bool{true, true},
		Dealer:     dealer,
		SmallBlind: e.cfg.SmallBlind(),
		BigBlind:   bb,
	}

	sb := e.state.pay(dealer, e.cfg.SmallBlind())
	bbPaid := e.state.pay(dealer.Opponent(), bb)
	e.state.CurrentBet = bb
	if dealer == Bot {
		e.state.BotHistory[PreFlop] = e.norm(sb)
	} else {
		e.state.BotHistory[PreFlop] = e.norm(bbPaid)
	}

	e.record = HandRecord{
		ID:             e.handIDs(),
		Number:         e.hands,
		Dealer:         dealer,
		MinBet:         e.cfg.MinBet,
		InitialStack:   e.cfg.InitialStack,
		SmallBlind:     sb,
		BigBlind:       bbPaid,
		StartingStacks: [2]int{e.agentStack, e.botStack},
		AgentCards:     agentCards,
		BotCards:       botCards,
	}
	e.live = true

	e.logger.Debug("hand started",
		"hand", e.record.ID,
		"dealer", dealer,
		"agent", deck.FormatCards(agentCards),
		"bot", deck.FormatCards(botCards),
		"stacks", fmt.Sprintf("%d/%d", e.state.AgentChips, e.state.BotChips))

	obs, err := e.observe()
	if err != nil {
		_, err = e.abort(err)
		return Observation{}, err
	}
	return obs, nil
}

func (e *Env) nextDealer() Player {
	if e.hands == 0 && e.firstDealer != nil {
		return *e.firstDealer
	}
	if e.cfg.Dealer == DealerAlternate && e.hands > 0 {
		return e.record.Dealer.Opponent()
	}
	if e.rng.IntN(2) == 0 {
		return Agent
	}
	return Bot
}

// Step applies the agent's signal, lets the bot respond, then advances to
// the next round or resolves the hand.
func (e *Env) Step(x float64) (StepResult, error) {
	if !e.live {
		return StepResult{}, ErrNoHand
	}
	if e.done {
		return StepResult{}, ErrHandComplete
	}
	s := &e.state

	dec, err := Interpret(x, s.Owed(Agent), s.AgentChips, e.cfg.InterpretParams())
	if err != nil {
		return StepResult{}, err
	}
	paid, folded := e.apply(Agent, dec)
	e.logAction(ActionRecord{Player: Agent, Round: s.Round, Action: dec.Action, Paid: paid, Signal: x, Equity: e.agentEquity})
	if folded {
		return e.finish(Bot, false)
	}

	botEquity, err := e.equity(e.rng, s.BotCards, s.Community, e.deck.Remaining())
	if err != nil {
		return e.abort(fmt.Errorf("bot equity: %w", err))
	}
	botDec := e.policy.Decide(Situation{
		Equity:       botEquity,
		Owed:         s.Owed(Bot),
		Chips:        s.BotChips,
		MinBet:       e.cfg.MinBet,
		InitialStack: e.cfg.InitialStack,
		Round:        s.Round,
	})
	paid, folded = e.apply(Bot, botDec)
	e.logAction(ActionRecord{Player: Bot, Round: s.Round, Action: botDec.Action, Paid: paid, Equity: botEquity})
	if folded {
		return e.finish(Agent, false)
	}
	if botDec.Action == Call || botDec.Action == Raise {
		s.BotHistory[s.Round] = e.norm(paid)
	}

	if s.Round == River {
		return e.showdown()
	}

	next := s.Round + 1
	cards, err := e.deck.DealN(next.cardsFor())
	if err != nil {
		return e.abort(fmt.Errorf("deal %s: %w", next, err))
	}
	s.Round = next
	s.Community = append(s.Community, cards...)
	s.AgentBet, s.BotBet, s.CurrentBet = 0, 0, 0

	e.logger.Debug("round advanced", "hand", e.record.ID, "round", next, "board", deck.FormatCards(s.Community), "pot", s.Pot)

	obs, err := e.observe()
	if err != nil {
		return e.abort(err)
	}
	return StepResult{Observation: obs}, nil
}

// apply performs a decision for p and reports the chips paid and whether p
// folded.
func (e *Env) apply(p Player, d Decision) (int, bool) {
	s := &e.state
	switch d.Action {
	case Fold:
		s.Active[p] = false
		return 0, true
	case Call:
		return s.pay(p, s.Owed(p)), false
	case Raise:
		paid := s.pay(p, d.Amount)
		s.CurrentBet = max(s.CurrentBet, *s.bet(p))
		return paid, false
	default:
		return 0, false
	}
}

func (e *Env) logAction(a ActionRecord) {
	a.PotAfter = e.state.Pot
	e.record.Actions = append(e.record.Actions, a)
	e.logger.Debug("action",
		"hand", e.record.ID,
		"player", a.Player,
		"round", a.Round,
		"action", a.Action,
		"paid", a.Paid,
		"pot", a.PotAfter)
}

func (e *Env) showdown() (StepResult, error) {
	s := &e.state
	agentRank, err := evaluator.Evaluate(s.AgentCards, s.Community)
	if err != nil {
		return e.abort(fmt.Errorf("evaluate agent hand: %w", err))
	}
	botRank, err := evaluator.Evaluate(s.BotCards, s.Community)
	if err != nil {
		return e.abort(fmt.Errorf("evaluate bot hand: %w", err))
	}
	e.record.Outcome.AgentRank = agentRank
	e.record.Outcome.BotRank = botRank

	switch agentRank.Compare(botRank) {
	case 1:
		return e.finish(Agent, true)
	case -1:
		return e.finish(Bot, true)
	default:
		return e.finish(NoPlayer, true)
	}
}

// finish awards the pot and closes the hand.
func (e *Env) finish(winner Player, showdown bool) (StepResult, error) {
	s := &e.state
	pot := s.Pot

	var reward float64
	switch winner {
	case Agent:
		s.AgentChips += pot
		reward = e.norm(pot)
	case Bot:
		s.BotChips += pot
		reward = -e.norm(pot)
	default:
		half := pot / 2
		s.AgentChips += half
		s.BotChips += half
		if pot%2 == 1 {
			*s.chips(s.Dealer.Opponent())++
		}
	}
	s.Pot = 0

	out := &e.record.Outcome
	out.Winner = winner
	out.Pot = pot
	out.Showdown = showdown
	out.Round = s.Round
	out.AgentDelta = s.AgentChips - e.record.StartingStacks[Agent]
	out.BotDelta = s.BotChips - e.record.StartingStacks[Bot]
	out.Reward = reward
	e.record.Community = append([]deck.Card(nil), s.Community...)

	e.agentStack, e.botStack = s.AgentChips, s.BotChips
	e.done = true

	e.logger.Debug("hand complete",
		"hand", e.record.ID,
		"winner", winner,
		"pot", pot,
		"showdown", showdown,
		"reward", reward)

	for _, r := range e.recorders {
		if err := r.RecordHand(e.Record()); err != nil {
			e.logger.Error("recorder failed", "hand", e.record.ID, "error", err)
		}
	}

	obs, err := e.observe()
	if err != nil {
		return StepResult{}, err
	}
	result := *out
	return StepResult{Observation: obs, Reward: reward, Done: true, Outcome: &result}, nil
}

// abort voids the hand: stacks go back to where they were before the blinds.
func (e *Env) abort(err error) (StepResult, error) {
	e.done = true
	e.agentStack, e.botStack = e.record.StartingStacks[Agent], e.record.StartingStacks[Bot]
	e.logger.Error("hand aborted", "hand", e.record.ID, "error", err)
	return StepResult{Done: true}, err
}

func (e *Env) observe() (Observation, error) {
	s := &e.state
	pool := e.deck.Remaining()
	if e.cfg.EquityPool == PoolUnseen {
		pool = deck.FullDeck()
	}
	p, err := e.equity(e.rng, s.AgentCards, s.Community, pool)
	if err != nil {
		return Observation{}, fmt.Errorf("agent equity: %w", err)
	}
	e.agentEquity = p
	return newObservation(p, s, e.cfg.InitialStack), nil
}

func (e *Env) norm(chips int) float64 {
	return float64(chips) / float64(e.cfg.InitialStack)
}
