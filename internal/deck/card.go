package deck

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCard is returned for ranks or suits outside the standard 52-card set.
var ErrInvalidCard = errors.New("invalid card")

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck order.
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the ASCII suit letter used in compact card notation.
func (s Suit) Letter() byte {
	if s < Spades || s > Clubs {
		return '?'
	}
	return "shdc"[s]
}

// Rank represents a card rank. Two is 2 and Ace is 14.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string("23456789TJQKA"[r-Two])
}

// Card is an immutable playing card; equality is by value.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Code returns the compact ASCII form of a card (e.g., "As").
func (c Card) Code() string {
	return c.Rank.String() + string(c.Suit.Letter())
}

// IsRed reports whether the card is a heart or diamond.
func (c Card) IsRed() bool {
	return c.Suit == Hearts || c.Suit == Diamonds
}

// Valid reports whether the card belongs to the standard 52-card set.
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

// Index maps a valid card to 0..51.
func (c Card) Index() int {
	return int(c.Suit)*13 + int(c.Rank-Two)
}

// FromIndex is the inverse of Index.
func FromIndex(i int) Card {
	return Card{Suit: Suit(i / 13), Rank: Rank(i%13) + Two}
}

// Validate returns ErrInvalidCard when any card is outside the 52-card set.
func Validate(cards ...Card) error {
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: rank=%d suit=%d", ErrInvalidCard, c.Rank, c.Suit)
		}
	}
	return nil
}

// FormatCards renders cards in compact notation separated by spaces.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.Code()
	}
	return strings.Join(parts, " ")
}

// ParseCard parses a single card such as "As", "10h" or "Q♦".
func ParseCard(s string) (Card, error) {
	cards, err := ParseCards(s)
	if err != nil {
		return Card{}, err
	}
	if len(cards) != 1 {
		return Card{}, fmt.Errorf("%w: %q is not a single card", ErrInvalidCard, s)
	}
	return cards[0], nil
}

// ParseCards parses a string of card notation into a slice of cards.
// Format: "AsKsQsJsTs" where each card is [Rank][Suit]; whitespace is ignored.
// Ranks: A K Q J T (or 10) 9..2. Suits: s h d c or ♠ ♥ ♦ ♣.
func ParseCards(s string) ([]Card, error) {
	runes := []rune(strings.Join(strings.Fields(s), ""))
	cards := make([]Card, 0, len(runes)/2)

	for i := 0; i < len(runes); {
		rank, width, err := parseRank(runes[i:])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		i += width
		if i >= len(runes) {
			return nil, fmt.Errorf("%w: incomplete card at end of %q", ErrInvalidCard, s)
		}
		suit, err := parseSuit(runes[i])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		i++
		cards = append(cards, Card{Suit: suit, Rank: rank})
	}

	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

func parseRank(r []rune) (Rank, int, error) {
	if len(r) >= 2 && r[0] == '1' && r[1] == '0' {
		return Ten, 2, nil
	}
	switch r[0] {
	case 'A', 'a':
		return Ace, 1, nil
	case 'K', 'k':
		return King, 1, nil
	case 'Q', 'q':
		return Queen, 1, nil
	case 'J', 'j':
		return Jack, 1, nil
	case 'T', 't':
		return Ten, 1, nil
	}
	if r[0] >= '2' && r[0] <= '9' {
		return Rank(r[0] - '0'), 1, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown rank '%c'", ErrInvalidCard, r[0])
}

func parseSuit(c rune) (Suit, error) {
	switch c {
	case 's', 'S', '♠':
		return Spades, nil
	case 'h', 'H', '♥':
		return Hearts, nil
	case 'd', 'D', '♦':
		return Diamonds, nil
	case 'c', 'C', '♣':
		return Clubs, nil
	default:
		return 0, fmt.Errorf("%w: unknown suit '%c'", ErrInvalidCard, c)
	}
}
