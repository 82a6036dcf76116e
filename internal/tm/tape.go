package tm

import "strings"

// Tape is the machine's storage: an ordered, effectively two-sided
// infinite sequence of symbols split at the head.
//
// The head is the first cell of the right part. Reading past either end
// yields Blank, and moving past either end grows the tape with Blank, so
// the tape never runs out.
//
// Tape is not safe for concurrent use; each machine owns its tape.
type Tape struct {
	// left holds the cells to the left of the head, in tape order:
	// left[len(left)-1] is the cell immediately left of the head.
	left []Symbol

	// right holds the head cell and everything to its right.
	right []Symbol
}

// NewTape creates a tape with the input laid out under and to the right
// of the head. An empty input gives an all-blank tape.
func NewTape(input string) *Tape {
	t := &Tape{}
	for _, r := range input {
		t.right = append(t.right, Symbol(r))
	}
	return t
}

// Read returns the symbol under the head. Reading off the end of the
// materialized tape yields Blank.
func (t *Tape) Read() Symbol {
	if len(t.right) == 0 {
		return Blank
	}
	return t.right[0]
}

// Write overwrites the symbol under the head, materializing the cell if
// the head sits on virgin tape.
func (t *Tape) Write(s Symbol) {
	if len(t.right) == 0 {
		t.right = append(t.right, s)
		return
	}
	t.right[0] = s
}

// MoveRight shifts the head one cell to the right. The cell the head
// leaves behind joins the left part; virgin tape materializes as Blank.
func (t *Tape) MoveRight() {
	if len(t.right) == 0 {
		t.left = append(t.left, Blank)
		return
	}
	t.left = append(t.left, t.right[0])
	t.right = t.right[1:]
}

// MoveLeft shifts the head one cell to the left, materializing a Blank
// cell when the head walks off the materialized left end.
func (t *Tape) MoveLeft() {
	var cell Symbol
	if len(t.left) == 0 {
		cell = Blank
	} else {
		cell = t.left[len(t.left)-1]
		t.left = t.left[:len(t.left)-1]
	}
	t.right = append([]Symbol{cell}, t.right...)
}

// Head returns the head position relative to the leftmost materialized
// cell. Useful for diagnostics only; the value shifts as the tape grows
// leftward.
func (t *Tape) Head() int {
	return len(t.left)
}

// String renders every materialized cell in tape order.
func (t *Tape) String() string {
	var b strings.Builder
	b.Grow(len(t.left) + len(t.right))
	for _, s := range t.left {
		b.WriteRune(rune(s))
	}
	for _, s := range t.right {
		b.WriteRune(rune(s))
	}
	return b.String()
}

// Compact renders the tape with leading and trailing blanks trimmed.
// This is the canonical "what does the tape say" rendering.
func (t *Tape) Compact() string {
	return strings.Trim(t.String(), string(rune(Blank)))
}

// Show renders the tape with a head marker between the left part and the
// head cell, for human-readable traces.
func (t *Tape) Show() string {
	var b strings.Builder
	for _, s := range t.left {
		b.WriteRune(rune(s))
	}
	b.WriteString(" >")
	for _, s := range t.right {
		b.WriteRune(rune(s))
	}
	return b.String()
}

// Clone returns an independent copy of the tape.
func (t *Tape) Clone() *Tape {
	c := &Tape{
		left:  make([]Symbol, len(t.left)),
		right: make([]Symbol, len(t.right)),
	}
	copy(c.left, t.left)
	copy(c.right, t.right)
	return c
}
