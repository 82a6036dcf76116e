package harness

import "github.com/tapeworks/tmach/internal/machine"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: the run finished and
	// every expect clause matched.
	Pass bool `json:"pass"`

	// Errors contains expectation failure messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// Status is the run outcome label (halted, no_match, quota_exceeded).
	Status string `json:"status"`

	// Tape is the compact final tape, empty unless the run halted.
	Tape string `json:"tape"`

	// Reading is the measurement reading of the final tape.
	Reading string `json:"reading"`

	// Steps is the number of executed steps.
	Steps int `json:"steps"`

	// Trace contains every step event in order.
	Trace []machine.StepEvent `json:"trace"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records an expectation failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
