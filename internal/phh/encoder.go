package phh

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/lox/holdemgym/internal/game"
)

// Encode writes the hand history to w in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// Decode reads a single hand history.
func Decode(r io.Reader) (*HandHistory, error) {
	var hand HandHistory
	if _, err := toml.NewDecoder(r).Decode(&hand); err != nil {
		return nil, fmt.Errorf("phh: decode: %w", err)
	}
	return &hand, nil
}

// FormatAction converts an engine action to a PHH action string. totalBet
// is the player's total contribution to the current round after the action.
// It returns false when nothing should be emitted.
func FormatAction(seat int, action game.Action, totalBet int) (string, bool) {
	player := fmt.Sprintf("p%d", seat+1)
	switch action {
	case game.Fold:
		return player + " f", true
	case game.Check, game.Call:
		return player + " cc", true
	case game.Raise:
		if totalBet <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s cbr %d", player, totalBet), true
	default:
		return fmt.Sprintf("# %s %s %d", player, action, totalBet), true
	}
}
