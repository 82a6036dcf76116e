package compiler

import (
	"fmt"
	"strings"

	"github.com/tapeworks/tmach/internal/tm"
)

// instructionWidth is the number of runes per instruction in the compact
// text encoding: state, input, output, move, next.
const instructionWidth = 5

// CompileError reports a program source error with its location.
type CompileError struct {
	File    string // source file, if known
	Index   int    // zero-based instruction ordinal, -1 if not tied to one
	Message string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	switch {
	case e.File != "" && e.Index >= 0:
		return fmt.Sprintf("%s: instruction %d: %s", e.File, e.Index, e.Message)
	case e.Index >= 0:
		return fmt.Sprintf("instruction %d: %s", e.Index, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	default:
		return e.Message
	}
}

// ParseCompact parses the single-string compact encoding: instructions
// are consecutive 5-rune groups with no separators, exactly as embedded
// program literals are written.
func ParseCompact(name, src string) (*tm.Program, error) {
	runes := []rune(src)
	if len(runes)%instructionWidth != 0 {
		return nil, &CompileError{
			Index:   -1,
			Message: fmt.Sprintf("program length %d is not a multiple of %d", len(runes), instructionWidth),
		}
	}

	p := &tm.Program{Name: name}
	for i := 0; i < len(runes); i += instructionWidth {
		in, err := parseInstruction(runes[i : i+instructionWidth])
		if err != nil {
			return nil, &CompileError{Index: i / instructionWidth, Message: err.Error()}
		}
		p.Instructions = append(p.Instructions, in)
	}
	return p, nil
}

// ParseText parses the file form of the text encoding: one instruction
// per line, with empty lines and lines starting with '#' ignored. Lines
// are not trimmed - a blank is a significant symbol, as in "1 mL2".
// Multiple instructions per line are accepted as long as the line's rune
// count is a multiple of five.
func ParseText(name, src string) (*tm.Program, error) {
	var compact strings.Builder
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		compact.WriteString(line)
	}
	return ParseCompact(name, compact.String())
}

// FormatText renders a program in the file form of the text encoding,
// one instruction per line with a trailing newline.
func FormatText(p *tm.Program) string {
	var b strings.Builder
	if p.Description != "" {
		b.WriteString("# " + p.Description + "\n")
	}
	for _, in := range p.Instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// parseInstruction decodes one 5-rune group.
func parseInstruction(runes []rune) (tm.Instruction, error) {
	move, err := tm.ParseMove(runes[3])
	if err != nil {
		return tm.Instruction{}, err
	}
	return tm.Instruction{
		State:  tm.State(runes[0]),
		Input:  tm.Symbol(runes[1]),
		Output: tm.Symbol(runes[2]),
		Move:   move,
		Next:   tm.State(runes[4]),
	}, nil
}
