package machine

import (
	"errors"
	"fmt"

	"github.com/tapeworks/tmach/internal/tm"
)

// NoMatchingInstructionError is returned when no instruction in the
// program matches the current (state, symbol) pair. This is the one
// genuine runtime failure a machine can hit; it is recoverable and
// carries the exact point of failure.
type NoMatchingInstructionError struct {
	State  tm.State
	Symbol tm.Symbol
	Step   int // steps completed before the failure
}

// Error implements the error interface.
func (e *NoMatchingInstructionError) Error() string {
	return fmt.Sprintf("no matching instruction for state %q, symbol %q (after %d steps)",
		string(e.State), string(e.Symbol), e.Step)
}

// IsNoMatchingInstruction reports whether err is a
// NoMatchingInstructionError. Uses errors.As to handle wrapped errors.
func IsNoMatchingInstruction(err error) bool {
	var e *NoMatchingInstructionError
	return errors.As(err, &e)
}

// StepsExceededError is returned when a run exceeds its max-steps quota.
//
// The quota is what turns "this program might not halt" into a definite
// verdict: the run terminates with this error instead of looping forever.
type StepsExceededError struct {
	Steps int // steps taken
	Limit int // configured quota
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}

// IsStepsExceeded reports whether err is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceeded(err error) bool {
	var e *StepsExceededError
	return errors.As(err, &e)
}
