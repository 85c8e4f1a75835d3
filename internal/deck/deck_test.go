package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/randutil"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck(randutil.New(1))
	require.Equal(t, Size, d.CardsRemaining())

	set, err := NewSet(d.Remaining()...)
	require.NoError(t, err)
	assert.Equal(t, Set(1<<52-1), set)
}

func TestShuffleIsSeeded(t *testing.T) {
	a := NewDeck(randutil.New(42))
	b := NewDeck(randutil.New(42))
	c := NewDeck(randutil.New(43))
	a.Shuffle()
	b.Shuffle()
	c.Shuffle()

	assert.Equal(t, a.Remaining(), b.Remaining())
	assert.NotEqual(t, a.Remaining(), c.Remaining())
}

func TestDealPreservesUnion(t *testing.T) {
	d := NewDeck(randutil.New(7))
	d.Shuffle()

	var drawn []Card
	hole, err := d.DealN(4)
	require.NoError(t, err)
	drawn = append(drawn, hole...)

	for _, n := range []int{3, 1, 1} {
		cards, err := d.DealN(n)
		require.NoError(t, err)
		drawn = append(drawn, cards...)
	}
	one, err := d.Deal()
	require.NoError(t, err)
	drawn = append(drawn, one)

	all := append(drawn, d.Remaining()...)
	require.Len(t, all, Size)
	set, err := NewSet(all...)
	require.NoError(t, err, "drawn and remaining cards must not overlap")
	assert.Equal(t, Set(1<<52-1), set)
}

func TestDealUnderflow(t *testing.T) {
	d := NewDeck(randutil.New(1))
	_, err := d.DealN(50)
	require.NoError(t, err)

	_, err = d.DealN(3)
	assert.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, 2, d.CardsRemaining(), "a failed deal must not consume cards")

	_, err = d.DealN(2)
	require.NoError(t, err)
	_, err = d.Deal()
	assert.ErrorIs(t, err, ErrDeckExhausted)
}

func TestResetRestoresFullDeck(t *testing.T) {
	d := NewDeck(randutil.New(3))
	_, err := d.DealN(10)
	require.NoError(t, err)

	d.Reset()
	assert.Equal(t, Size, d.CardsRemaining())
}

func TestRemainingIsACopy(t *testing.T) {
	d := NewDeck(randutil.New(3))
	rem := d.Remaining()
	rem[0] = Card{Suit: Clubs, Rank: Two}
	assert.Equal(t, Card{Suit: Spades, Rank: Two}, d.Remaining()[0])
}

func TestWithout(t *testing.T) {
	cards := MustParseCards("AsKsQsJsTs")
	out := Without(cards, MustParseCards("KsJs")...)
	assert.Equal(t, MustParseCards("AsQsTs"), out)
	assert.Len(t, cards, 5)
}

func TestIndexRoundTrip(t *testing.T) {
	for i := 0; i < Size; i++ {
		c := FromIndex(i)
		require.True(t, c.Valid())
		require.Equal(t, i, c.Index())
	}
}
