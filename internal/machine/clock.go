package machine

import "sync/atomic"

// Clock is a monotonic logical clock stamping trace events.
//
// Every step gets a strictly increasing seq number, so traces can be
// ordered and compared without wall-clock involvement and replay
// produces identical numbering.
//
// Thread-safety: safe for concurrent use (atomic operations), although a
// machine steps from a single goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used by replay to resume numbering from a recorded position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
