package game

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSignal matches every *InvalidSignalError.
	ErrInvalidSignal = errors.New("invalid action signal")
	ErrInvalidParams = errors.New("invalid interpreter parameters")
)

// InvalidSignalError reports an action signal that cannot be interpreted.
type InvalidSignalError struct {
	Value float64
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("invalid action signal: %v", e.Value)
}

func (e *InvalidSignalError) Is(target error) bool {
	return target == ErrInvalidSignal
}

// InterpretParams are the fixed bet units the interpreter scales by.
type InterpretParams struct {
	MinBet int // M
	MaxBet int // U, the per-bet cap
}

// Interpret maps a real-valued signal x onto a decision given the amount
// owed and the actor's remaining chips.
//
// With nothing owed, x >= M raises floor(x/M)*M and anything lower checks.
// With an amount owed, x >= 2M raises M + floor((x-M)/M)*M, M <= x < 2M
// calls and anything lower folds. Raise sizes are clamped to
// [0, min(chips, U)].
func Interpret(x float64, owed, chips int, p InterpretParams) (Decision, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Decision{}, &InvalidSignalError{Value: x}
	}
	if p.MinBet <= 0 {
		return Decision{}, fmt.Errorf("%w: min bet %d", ErrInvalidParams, p.MinBet)
	}

	m := float64(p.MinBet)
	limit := max(min(chips, p.MaxBet), 0)

	if owed <= 0 {
		if x >= m {
			return RaiseDecision(clampBet(math.Floor(x/m)*m, limit)), nil
		}
		return CheckDecision(), nil
	}

	switch {
	case x >= 2*m:
		return RaiseDecision(clampBet(m+math.Floor((x-m)/m)*m, limit)), nil
	case x >= m:
		return CallDecision(), nil
	default:
		return FoldDecision(), nil
	}
}

// clampBet converts before clamping so very large signals cannot overflow.
func clampBet(amount float64, limit int) int {
	if amount <= 0 {
		return 0
	}
	if amount >= float64(limit) {
		return limit
	}
	return int(amount)
}
