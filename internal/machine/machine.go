package machine

import (
	"context"
	"log/slog"

	"github.com/tapeworks/tmach/internal/tm"
)

// DefaultMaxSteps is the default max-steps quota per run.
// Generous enough for every shipped program; small enough that a
// non-halting program fails fast instead of spinning forever.
const DefaultMaxSteps = 100000

// ctxCheckInterval controls how often Run polls the context.
// Checking every step would dominate the hot loop for long runs.
const ctxCheckInterval = 1024

// Machine executes a program against a tape, one instruction at a time.
//
// Lifecycle: created in StateInit, mutated one Step at a time, terminates
// on StateHalt or fails with NoMatchingInstructionError /
// StepsExceededError. A Machine is single-use; build a new one per run.
//
// Not safe for concurrent use.
type Machine struct {
	prog     *tm.Program
	tape     *tm.Tape
	state    tm.State
	steps    int
	maxSteps int
	clock    *Clock
	tracer   Tracer
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps sets the max-steps quota for the run.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// WithTracer attaches a tracer observing every step.
func WithTracer(t Tracer) Option {
	return func(m *Machine) {
		m.tracer = t
	}
}

// WithClock replaces the machine's logical clock.
// Used by replay to resume seq numbering from a recorded position.
func WithClock(c *Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// New creates a machine in StateInit over the given program and tape.
// The machine takes ownership of the tape.
func New(prog *tm.Program, tape *tm.Tape, opts ...Option) *Machine {
	m := &Machine{
		prog:     prog,
		tape:     tape,
		state:    tm.StateInit,
		maxSteps: DefaultMaxSteps,
		clock:    NewClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step executes exactly one instruction.
//
// It reads the symbol under the head, scans the program in declaration
// order for the first matching instruction, writes (unless the output is
// NoWrite), moves the head, and transitions. Write and move are applied
// even on the instruction that transitions to StateHalt.
//
// Returns halted=true when the machine entered StateHalt. Returns a
// *NoMatchingInstructionError if no instruction matches, or a
// *StepsExceededError if the quota is spent. After an error the machine
// must not be stepped again.
func (m *Machine) Step() (halted bool, err error) {
	if m.steps >= m.maxSteps {
		return false, &StepsExceededError{Steps: m.steps, Limit: m.maxSteps}
	}

	read := m.tape.Read()
	idx, in, ok := m.prog.Find(m.state, read)
	if !ok {
		return false, &NoMatchingInstructionError{State: m.state, Symbol: read, Step: m.steps}
	}

	if in.Output != tm.NoWrite {
		m.tape.Write(in.Output)
	}
	switch in.Move {
	case tm.MoveLeft:
		m.tape.MoveLeft()
	case tm.MoveRight:
		m.tape.MoveRight()
	}

	prev := m.state
	m.state = in.Next
	m.steps++

	seq := m.clock.Next()
	if m.tracer != nil {
		m.tracer.Observe(newStepEvent(seq, prev, read, idx, in))
	}
	slog.Debug("step executed",
		"seq", seq,
		"state", string(rune(prev)),
		"read", string(rune(read)),
		"index", idx,
		"next", string(rune(in.Next)),
	)

	return m.state == tm.StateHalt, nil
}

// Run steps the machine until halt, failure, or context cancellation.
// Returns the final tape on halt, or the error that stopped the run.
func (m *Machine) Run(ctx context.Context) (*tm.Tape, error) {
	slog.Info("run starting",
		"program", m.prog.Name,
		"instructions", m.prog.Len(),
		"max_steps", m.maxSteps,
	)

	for {
		if m.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				slog.Info("run cancelled", "program", m.prog.Name, "steps", m.steps)
				return nil, err
			}
		}

		halted, err := m.Step()
		if err != nil {
			slog.Info("run failed",
				"program", m.prog.Name,
				"steps", m.steps,
				"error", err,
			)
			return nil, err
		}
		if halted {
			slog.Info("run halted",
				"program", m.prog.Name,
				"steps", m.steps,
				"tape", m.tape.Compact(),
			)
			return m.tape, nil
		}
	}
}

// State returns the current state.
func (m *Machine) State() tm.State {
	return m.state
}

// Steps returns the number of steps executed so far.
func (m *Machine) Steps() int {
	return m.steps
}

// Tape returns the machine's tape.
func (m *Machine) Tape() *tm.Tape {
	return m.tape
}

// MaxSteps returns the configured quota.
func (m *Machine) MaxSteps() int {
	return m.maxSteps
}
