package evaluator

import (
	"fmt"
	"strings"

	"github.com/lox/holdemgym/internal/deck"
)

// Category is the class of a poker hand, weakest first.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the string representation of a hand category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRank orders hands by category, then by tiebreak ranks compared
// lexicographically. Repeated ranks come before kickers and kickers are
// descending, so two pair is [high pair, low pair, kicker].
type HandRank struct {
	Category  Category
	Tiebreaks []int
}

// Unranked is the rank given to fewer than five cards. It sorts below every
// real hand.
func Unranked() HandRank {
	return HandRank{Category: HighCard, Tiebreaks: []int{0}}
}

// IsUnranked reports whether h is the sentinel for an incomplete hand.
func (h HandRank) IsUnranked() bool {
	return h.Category == HighCard && len(h.Tiebreaks) == 1 && h.Tiebreaks[0] == 0
}

// Compare returns -1 if h is weaker than other, 0 if equal, 1 if stronger.
// A tiebreak list that is a strict prefix of the other compares lower.
func (h HandRank) Compare(other HandRank) int {
	if h.Category != other.Category {
		if h.Category < other.Category {
			return -1
		}
		return 1
	}
	for i := 0; i < len(h.Tiebreaks) && i < len(other.Tiebreaks); i++ {
		if h.Tiebreaks[i] < other.Tiebreaks[i] {
			return -1
		}
		if h.Tiebreaks[i] > other.Tiebreaks[i] {
			return 1
		}
	}
	switch {
	case len(h.Tiebreaks) < len(other.Tiebreaks):
		return -1
	case len(h.Tiebreaks) > len(other.Tiebreaks):
		return 1
	}
	return 0
}

// Less reports whether h loses to other.
func (h HandRank) Less(other HandRank) bool {
	return h.Compare(other) < 0
}

// Equal reports whether h and other split the pot.
func (h HandRank) Equal(other HandRank) bool {
	return h.Compare(other) == 0
}

// String describes the hand, e.g. "Two Pair (K, 9, kicker A)".
func (h HandRank) String() string {
	if h.IsUnranked() {
		return "Unranked"
	}
	t := h.Tiebreaks
	name := h.Category.String()
	switch h.Category {
	case RoyalFlush:
		return name
	case Straight, StraightFlush:
		return fmt.Sprintf("%s (%s high)", name, rankName(t, 0))
	case FourOfAKind:
		return fmt.Sprintf("%s (%s, kicker %s)", name, rankName(t, 0), rankName(t, 1))
	case FullHouse:
		return fmt.Sprintf("%s (%s over %s)", name, rankName(t, 0), rankName(t, 1))
	case ThreeOfAKind:
		return fmt.Sprintf("%s (%s, kickers %s)", name, rankName(t, 0), rankList(t[min(1, len(t)):]))
	case TwoPair:
		return fmt.Sprintf("%s (%s, %s, kicker %s)", name, rankName(t, 0), rankName(t, 1), rankName(t, 2))
	case OnePair:
		return fmt.Sprintf("%s (%s, kickers %s)", name, rankName(t, 0), rankList(t[min(1, len(t)):]))
	default:
		return fmt.Sprintf("%s (%s)", name, rankList(t))
	}
}

func rankName(t []int, i int) string {
	if i >= len(t) {
		return "?"
	}
	if t[i] == 1 {
		return deck.Ace.String()
	}
	return deck.Rank(t[i]).String()
}

func rankList(t []int) string {
	parts := make([]string, len(t))
	for i := range t {
		parts[i] = rankName(t, i)
	}
	return strings.Join(parts, ", ")
}
