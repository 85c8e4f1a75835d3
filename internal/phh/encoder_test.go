package phh_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/game"
	"github.com/lox/holdemgym/internal/phh"
)

func TestFormatAction(t *testing.T) {
	tests := []struct {
		name      string
		seat      int
		action    game.Action
		totalBet  int
		want      string
		shouldUse bool
	}{
		{"fold", 0, game.Fold, 0, "p1 f", true},
		{"check", 1, game.Check, 0, "p2 cc", true},
		{"call", 0, game.Call, 50, "p1 cc", true},
		{"raise", 0, game.Raise, 120, "p1 cbr 120", true},
		{"zero raise", 1, game.Raise, 0, "", false},
		{"unknown", 1, game.Action(9), 10, "# p2 unknown 10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := phh.FormatAction(tt.seat, tt.action, tt.totalBet)
			assert.Equal(t, tt.shouldUse, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeHandHistory(t *testing.T) {
	hand := &phh.HandHistory{
		Variant:           "NT",
		Table:             "gym",
		SeatCount:         2,
		Seats:             []int{1, 2},
		Antes:             []int{0, 0},
		BlindsOrStraddles: []int{5, 10},
		MinBet:            10,
		StartingStacks:    []int{1000, 1000},
		FinishingStacks:   []int{985, 1015},
		Winnings:          []int{0, 30},
		Actions: []string{
			"d dh p1 AhKh",
			"d dh p2 7c2d",
			"p1 cc",
			"p2 cbr 20",
			"p1 f",
		},
		Players:   []string{"agent", "bot"},
		HandID:    "hand-00042",
		Time:      "15:22:00",
		TimeZone:  "UTC",
		Day:       14,
		Month:     11,
		Year:      2025,
		Timestamp: time.Date(2025, time.November, 14, 15, 22, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, phh.Encode(&buf, hand))

	want := "" +
		"variant = \"NT\"\n" +
		"table = \"gym\"\n" +
		"seat_count = 2\n" +
		"seats = [1, 2]\n" +
		"antes = [0, 0]\n" +
		"blinds_or_straddles = [5, 10]\n" +
		"min_bet = 10\n" +
		"starting_stacks = [1000, 1000]\n" +
		"finishing_stacks = [985, 1015]\n" +
		"winnings = [0, 30]\n" +
		"actions = [\"d dh p1 AhKh\", \"d dh p2 7c2d\", \"p1 cc\", \"p2 cbr 20\", \"p1 f\"]\n" +
		"players = [\"agent\", \"bot\"]\n" +
		"hand = \"hand-00042\"\n" +
		"time = \"15:22:00\"\n" +
		"time_zone = \"UTC\"\n" +
		"day = 14\n" +
		"month = 11\n" +
		"year = 2025\n"
	assert.Equal(t, want, buf.String())

	decoded, err := phh.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, hand.Actions, decoded.Actions)
	assert.Equal(t, hand.FinishingStacks, decoded.FinishingStacks)
	assert.Equal(t, hand.HandID, decoded.HandID)
}

func TestEncodeNil(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, phh.Encode(&buf, nil))
}
