package deck

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrDeckExhausted signals a deal past the end of the deck. It always means the
// caller's bookkeeping is wrong; hands must abort rather than continue.
var ErrDeckExhausted = errors.New("deck exhausted")

// Size is the number of cards in a standard deck.
const Size = 52

// FullDeck returns the 52 cards in canonical order (suit-major, ascending rank).
func FullDeck() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Deck represents a draw pile of unique cards
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a new standard 52-card deck in canonical order. The rng is
// used by Shuffle and must not be nil.
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{
		cards: FullDeck(),
		rng:   rng,
	}
}

// Shuffle randomizes the order of the remaining cards (Fisher-Yates)
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// DealN deals n cards from the deck. Nothing is dealt when fewer than n remain.
func (d *Deck) DealN(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d cards, %d remain", ErrDeckExhausted, n, len(d.cards))
	}

	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards, nil
}

// Remaining returns a copy of the undealt cards in draw order.
func (d *Deck) Remaining() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// Reset restores the deck to a full 52-card deck and shuffles it
func (d *Deck) Reset() {
	d.cards = FullDeck()
	d.Shuffle()
}

// Without returns a copy of cards with every card in exclude removed.
func Without(cards []Card, exclude ...Card) []Card {
	var skip Set
	for _, c := range exclude {
		skip.Add(c)
	}
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if !skip.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Set is a bitset over the 52 cards.
type Set uint64

// Add adds a card to the set
func (s *Set) Add(c Card) {
	*s |= 1 << c.Index()
}

// Contains checks if a card is in the set
func (s Set) Contains(c Card) bool {
	return s&(1<<c.Index()) != 0
}

// NewSet builds a set and reports the first card that appears twice.
func NewSet(cards ...Card) (Set, error) {
	var s Set
	for _, c := range cards {
		if err := Validate(c); err != nil {
			return 0, err
		}
		if s.Contains(c) {
			return s, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		s.Add(c)
	}
	return s, nil
}

// ErrDuplicateCard is returned when the same card appears more than once.
var ErrDuplicateCard = errors.New("duplicate card")
