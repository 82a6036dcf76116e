package machine

import "github.com/tapeworks/tmach/internal/tm"

// StepEvent records a single executed step for tracing and replay.
//
// Wrote is empty when the instruction's output was NoWrite. State, Read,
// Wrote, Move, and Next use their single-rune text encodings so events
// serialize identically everywhere (store, golden files, CLI output).
type StepEvent struct {
	Seq   int64  `json:"seq"`             // logical clock stamp
	State string `json:"state"`           // state before the step
	Read  string `json:"read"`            // symbol under the head
	Index int    `json:"index"`           // instruction index that fired
	Wrote string `json:"wrote,omitempty"` // symbol written, if any
	Move  string `json:"move"`            // L, N, or R
	Next  string `json:"next"`            // state after the step
}

// Tracer observes step events as they happen.
// Observe is called from the stepping goroutine; implementations must
// not block the run.
type Tracer interface {
	Observe(StepEvent)
}

// CollectingTracer accumulates every step event in order.
// Not safe for concurrent use; give each machine its own collector.
type CollectingTracer struct {
	Events []StepEvent
}

// Observe implements Tracer.
func (c *CollectingTracer) Observe(ev StepEvent) {
	c.Events = append(c.Events, ev)
}

// newStepEvent builds a StepEvent from a fired instruction.
func newStepEvent(seq int64, state tm.State, read tm.Symbol, index int, in tm.Instruction) StepEvent {
	ev := StepEvent{
		Seq:   seq,
		State: string(rune(state)),
		Read:  string(rune(read)),
		Index: index,
		Move:  string(in.Move.Letter()),
		Next:  string(rune(in.Next)),
	}
	if in.Output != tm.NoWrite {
		ev.Wrote = string(rune(in.Output))
	}
	return ev
}
