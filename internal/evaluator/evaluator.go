// Package evaluator ranks Texas Hold'em hands and estimates win probability
// by Monte Carlo sampling.
package evaluator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/holdemgym/internal/deck"
)

var (
	// ErrTooManyCards is returned for more than two hole or five community cards.
	ErrTooManyCards = errors.New("too many cards")
	// ErrInvalidCard and ErrDuplicateCard are re-exported from the deck package
	// so callers can match evaluator errors without importing it.
	ErrInvalidCard   = deck.ErrInvalidCard
	ErrDuplicateCard = deck.ErrDuplicateCard
)

// Evaluate returns the best five-card hand that can be made from the hole and
// community cards. With fewer than five cards in total it returns Unranked.
func Evaluate(hole, community []deck.Card) (HandRank, error) {
	if err := validate(hole, community); err != nil {
		return HandRank{}, err
	}
	cards := make([]deck.Card, 0, len(hole)+len(community))
	cards = append(cards, hole...)
	cards = append(cards, community...)
	return best(cards), nil
}

func validate(hole, community []deck.Card) error {
	if len(hole) > 2 {
		return fmt.Errorf("%w: %d hole cards", ErrTooManyCards, len(hole))
	}
	if len(community) > 5 {
		return fmt.Errorf("%w: %d community cards", ErrTooManyCards, len(community))
	}
	var seen deck.Set
	for _, group := range [][]deck.Card{hole, community} {
		for _, c := range group {
			if err := deck.Validate(c); err != nil {
				return err
			}
			if seen.Contains(c) {
				return fmt.Errorf("%w: %s", ErrDuplicateCard, c.Code())
			}
			seen.Add(c)
		}
	}
	return nil
}

// best scores every five-card subset of cards and keeps the strongest. Cards
// must already be valid and distinct.
func best(cards []deck.Card) HandRank {
	n := len(cards)
	if n < 5 {
		return Unranked()
	}

	var (
		top   HandRank
		found bool
		five  [5]deck.Card
	)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five = [5]deck.Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						r := Evaluate5(five)
						if !found || top.Less(r) {
							top, found = r, true
						}
					}
				}
			}
		}
	}
	return top
}

// Evaluate5 classifies exactly five cards.
func Evaluate5(cards [5]deck.Card) HandRank {
	var ranks [5]int
	flush := true
	for i, c := range cards {
		ranks[i] = int(c.Rank)
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	slices.Sort(ranks[:])
	slices.Reverse(ranks[:])

	high, straight := straightHigh(ranks)

	switch {
	case straight && flush && high == int(deck.Ace):
		return HandRank{Category: RoyalFlush, Tiebreaks: straightRanks(high)}
	case straight && flush:
		return HandRank{Category: StraightFlush, Tiebreaks: straightRanks(high)}
	}

	groups := groupRanks(ranks)
	switch {
	case groups[0].count == 4:
		return HandRank{Category: FourOfAKind, Tiebreaks: []int{groups[0].rank, groups[1].rank}}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandRank{Category: FullHouse, Tiebreaks: []int{groups[0].rank, groups[1].rank}}
	case flush:
		return HandRank{Category: Flush, Tiebreaks: ranks[:]}
	case straight:
		return HandRank{Category: Straight, Tiebreaks: straightRanks(high)}
	case groups[0].count == 3:
		return HandRank{Category: ThreeOfAKind, Tiebreaks: groupTiebreaks(groups)}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandRank{Category: TwoPair, Tiebreaks: groupTiebreaks(groups)}
	case groups[0].count == 2:
		return HandRank{Category: OnePair, Tiebreaks: groupTiebreaks(groups)}
	default:
		return HandRank{Category: HighCard, Tiebreaks: ranks[:]}
	}
}

// straightHigh reports the top card of a straight in ranks (sorted
// descending). The wheel A-5-4-3-2 is a five-high straight.
func straightHigh(ranks [5]int) (int, bool) {
	for i := 1; i < 5; i++ {
		if ranks[i] == ranks[i-1] {
			return 0, false
		}
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0], true
	}
	if ranks == [5]int{14, 5, 4, 3, 2} {
		return 5, true
	}
	return 0, false
}

// straightRanks lists the ranks of a straight from its top card down; the
// wheel's ace counts as one.
func straightRanks(high int) []int {
	return []int{high, high - 1, high - 2, high - 3, high - 4}
}

type rankGroup struct {
	rank  int
	count int
}

// groupRanks groups equal ranks, largest group first and higher rank first
// within equal sizes.
func groupRanks(ranks [5]int) []rankGroup {
	groups := make([]rankGroup, 0, 5)
	for _, r := range ranks {
		if n := len(groups); n > 0 && groups[n-1].rank == r {
			groups[n-1].count++
			continue
		}
		groups = append(groups, rankGroup{rank: r, count: 1})
	}
	slices.SortStableFunc(groups, func(a, b rankGroup) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return b.rank - a.rank
	})
	return groups
}

func groupTiebreaks(groups []rankGroup) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = g.rank
	}
	return out
}
