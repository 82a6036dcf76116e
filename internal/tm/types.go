package tm

import (
	"fmt"
	"strings"
)

// Symbol is a single cell value on the tape. Any rune is a valid tape
// symbol; a handful of runes carry special meaning inside instructions.
type Symbol rune

const (
	// Blank is the default symbol on an empty stretch of tape.
	Blank Symbol = ' '

	// Wildcard, as an instruction input, matches any tape symbol.
	// On the tape itself '?' is an ordinary symbol.
	Wildcard Symbol = '?'

	// NoWrite, as an instruction output, means "leave the cell alone".
	// On the tape itself '*' is an ordinary symbol.
	NoWrite Symbol = '*'

	// Erased is the conventional marker programs use for consumed input.
	// The machine attaches no meaning to it; rendering helpers do.
	Erased Symbol = '_'
)

// Move is a head movement direction.
type Move int8

const (
	MoveLeft Move = iota - 1
	MoveNone
	MoveRight
)

// Letter returns the single-letter text encoding of the move (L/N/R).
func (m Move) Letter() rune {
	switch m {
	case MoveLeft:
		return 'L'
	case MoveRight:
		return 'R'
	default:
		return 'N'
	}
}

// ParseMove decodes a move letter. Returns an error for anything other
// than L, N, or R.
func ParseMove(r rune) (Move, error) {
	switch r {
	case 'L':
		return MoveLeft, nil
	case 'N':
		return MoveNone, nil
	case 'R':
		return MoveRight, nil
	default:
		return MoveNone, fmt.Errorf("invalid move letter %q (want L, N, or R)", r)
	}
}

// State is an abstract identifier controlling which instructions are
// eligible to fire. States are single runes in the text encoding.
type State rune

const (
	// StateInit is the state every machine starts in.
	StateInit State = '0'

	// StateHalt is the distinguished terminal state. Reaching it stops
	// execution; it can never be the source state of an instruction.
	StateHalt State = 'H'
)

// Instruction is the 5-tuple (state, input, output, move, next).
//
// An instruction fires when the machine state equals State and the symbol
// under the head equals Input, or Input is Wildcard. Output is written
// unless it is NoWrite. Matching is first-match-wins in program order.
type Instruction struct {
	State  State
	Input  Symbol
	Output Symbol
	Move   Move
	Next   State
}

// String returns the compact 5-rune text encoding of the instruction.
func (in Instruction) String() string {
	return fmt.Sprintf("%c%c%c%c%c", in.State, in.Input, in.Output, in.Move.Letter(), in.Next)
}

// Matches reports whether the instruction fires for (state, read).
func (in Instruction) Matches(state State, read Symbol) bool {
	if in.State != state {
		return false
	}
	return in.Input == Wildcard || in.Input == read
}

// Program is a named, ordered instruction list.
//
// Order is load-bearing: Find scans in declaration order and selects the
// first matching instruction, so a wildcard shadows every later
// instruction for the same state.
type Program struct {
	Name         string
	Description  string
	Instructions []Instruction
}

// Find returns the index and value of the first instruction matching
// (state, read), or ok=false if no instruction matches.
func (p *Program) Find(state State, read Symbol) (int, Instruction, bool) {
	for i, in := range p.Instructions {
		if in.Matches(state, read) {
			return i, in, true
		}
	}
	return -1, Instruction{}, false
}

// Canonical returns the canonical text form of the program: one 5-rune
// instruction per line, no comments, no trailing newline. Two programs
// with the same instruction list have identical canonical forms
// regardless of how they were written.
func (p *Program) Canonical() string {
	lines := make([]string, len(p.Instructions))
	for i, in := range p.Instructions {
		lines[i] = in.String()
	}
	return strings.Join(lines, "\n")
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}
