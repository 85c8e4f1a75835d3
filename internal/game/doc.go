// Package game implements heads-up limit Texas Hold'em as a step-wise
// environment for training agents.
//
// The main type is Env, which deals hands between an external agent and a
// rule-based bot, tracks stacks and the pot, and resolves each hand by fold
// or showdown.
//
// # Basic Usage
//
//	env, err := game.NewEnv(game.DefaultConfig(), game.WithRNG(randutil.New(42)))
//	obs, err := env.Reset()
//	for {
//	    res, err := env.Step(signal(obs))
//	    if res.Done {
//	        break
//	    }
//	    obs = res.Observation
//	}
//
// # Actions
//
// The agent answers every observation with one real number. Interpret turns
// it into fold, check, call or raise using the table's minimum bet and
// per-bet cap. Each Step applies the agent's action, lets the bot respond
// once through its Policy, then either deals the next round or goes to
// showdown after the river.
//
// # Deterministic Testing
//
// Inject the random source with WithRNG, fix the first dealer with
// WithFirstDealer and stub win probabilities with WithEquity:
//
//	env, _ := game.NewEnv(cfg,
//	    game.WithRNG(randutil.New(1)),
//	    game.WithFirstDealer(game.Agent),
//	    game.WithEquity(func(*rand.Rand, []deck.Card, []deck.Card, []deck.Card) (float64, error) {
//	        return 0.6, nil
//	    }))
package game
