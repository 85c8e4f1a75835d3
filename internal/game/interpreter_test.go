package game

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	p := InterpretParams{MinBet: 10, MaxBet: 300}

	tests := []struct {
		name  string
		x     float64
		owed  int
		chips int
		want  Decision
	}{
		// Nothing owed.
		{"exactly M raises M", 10, 0, 1000, RaiseDecision(10)},
		{"just below M checks", 9.99, 0, 1000, CheckDecision()},
		{"zero checks", 0, 0, 1000, CheckDecision()},
		{"negative checks", -50, 0, 1000, CheckDecision()},
		{"rounds down to M units", 25, 0, 1000, RaiseDecision(20)},
		{"capped at U", 1e9, 0, 1000, RaiseDecision(300)},
		{"capped at chips", 100, 0, 15, RaiseDecision(15)},
		{"no chips raises nothing", 100, 0, 0, RaiseDecision(0)},

		// Amount owed.
		{"exactly 2M raises rather than calls", 20, 5, 1000, RaiseDecision(20)},
		{"just below 2M calls", 19.99, 5, 1000, CallDecision()},
		{"exactly M calls", 10, 5, 1000, CallDecision()},
		{"just below M folds", 9.99, 5, 1000, FoldDecision()},
		{"zero folds", 0, 5, 1000, FoldDecision()},
		{"negative folds", -1, 5, 1000, FoldDecision()},
		{"raise grows in M units", 35, 5, 1000, RaiseDecision(30)},
		{"owed raise capped at chips", 500, 5, 42, RaiseDecision(42)},
		{"owed raise capped at U", 500, 5, 1000, RaiseDecision(300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpret(tt.x, tt.owed, tt.chips, p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpretRejectsNonFiniteSignals(t *testing.T) {
	p := InterpretParams{MinBet: 10, MaxBet: 300}
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Interpret(x, 0, 1000, p)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignal)

		var sigErr *InvalidSignalError
		require.True(t, errors.As(err, &sigErr))
		if !math.IsNaN(x) {
			assert.Equal(t, x, sigErr.Value)
		}
	}
}

func TestInterpretRejectsBadParams(t *testing.T) {
	_, err := Interpret(10, 0, 1000, InterpretParams{MinBet: 0, MaxBet: 300})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
