package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadInput is returned for commands ParseSignal does not understand.
var ErrBadInput = errors.New("unrecognised action")

// Command is a parsed line from the action input.
type Command int

const (
	CommandAct Command = iota
	CommandNext
	CommandQuit
)

// ParseSignal turns a typed action into the raw signal the environment
// interprets. owed is what the player must add to call and minBet is the
// betting unit.
//
//	f, fold       0 (checks when nothing is owed)
//	k, check      0, rejected when facing a bet
//	c, call       minBet when facing a bet, otherwise 0
//	r, raise [N]  N chips, defaulting to the minimum raise
//	N             sent as is
func ParseSignal(input string, owed, minBet int) (float64, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrBadInput)
	}

	switch fields[0] {
	case "f", "fold":
		return 0, nil
	case "k", "check":
		if owed > 0 {
			return 0, fmt.Errorf("%w: cannot check facing %d", ErrBadInput, owed)
		}
		return 0, nil
	case "c", "call":
		if owed == 0 {
			return 0, nil
		}
		return float64(minBet), nil
	case "r", "raise", "b", "bet":
		floor := minBet
		if owed > 0 {
			floor = 2 * minBet
		}
		if len(fields) == 1 {
			return float64(floor), nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: bad raise amount %q", ErrBadInput, fields[1])
		}
		return float64(max(n, floor)), nil
	}

	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadInput, input)
	}
	return x, nil
}

// parseCommand classifies a line of input before any signal parsing.
func parseCommand(input string) Command {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return CommandQuit
	case "", "n", "next", "deal":
		return CommandNext
	}
	return CommandAct
}
