package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/tapeworks/tmach/internal/tm"
)

// CompileProgram parses a CUE value into a tm.Program.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The value must contain a "program" struct:
//
//	program: {
//		name: "measure"
//		description?: string
//		instructions: [
//			{state: "0", input: "?", output: "*", move: "L", next: "1"},
//			...
//		]
//	}
//
// State, input, and output fields are single-rune strings; move is one
// of "L", "N", "R".
func CompileProgram(v cue.Value) (*tm.Program, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	progVal := v.LookupPath(cue.ParsePath("program"))
	if !progVal.Exists() {
		return nil, &CompileError{Index: -1, Message: "missing required field \"program\""}
	}

	p := &tm.Program{}

	nameVal := progVal.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Index: -1, Message: "program.name is required"}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, fmt.Errorf("program.name: %w", err)
	}
	p.Name = name

	descVal := progVal.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, fmt.Errorf("program.description: %w", err)
		}
		p.Description = desc
	}

	instrVal := progVal.LookupPath(cue.ParsePath("instructions"))
	if !instrVal.Exists() {
		return nil, &CompileError{Index: -1, Message: "program.instructions is required"}
	}
	iter, err := instrVal.List()
	if err != nil {
		return nil, fmt.Errorf("program.instructions: %w", err)
	}

	index := 0
	for iter.Next() {
		in, err := compileInstruction(iter.Value(), index)
		if err != nil {
			return nil, err
		}
		p.Instructions = append(p.Instructions, in)
		index++
	}

	return p, nil
}

// compileInstruction parses one instruction struct from CUE.
func compileInstruction(v cue.Value, index int) (tm.Instruction, error) {
	state, err := singleRuneField(v, "state", index)
	if err != nil {
		return tm.Instruction{}, err
	}
	input, err := singleRuneField(v, "input", index)
	if err != nil {
		return tm.Instruction{}, err
	}
	output, err := singleRuneField(v, "output", index)
	if err != nil {
		return tm.Instruction{}, err
	}
	next, err := singleRuneField(v, "next", index)
	if err != nil {
		return tm.Instruction{}, err
	}
	moveLetter, err := singleRuneField(v, "move", index)
	if err != nil {
		return tm.Instruction{}, err
	}
	move, err := tm.ParseMove(moveLetter)
	if err != nil {
		return tm.Instruction{}, &CompileError{Index: index, Message: err.Error()}
	}

	return tm.Instruction{
		State:  tm.State(state),
		Input:  tm.Symbol(input),
		Output: tm.Symbol(output),
		Move:   move,
		Next:   tm.State(next),
	}, nil
}

// singleRuneField reads a required single-rune string field.
func singleRuneField(v cue.Value, field string, index int) (rune, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Index: index, Message: fmt.Sprintf("field %q is required", field)}
	}
	s, err := fv.String()
	if err != nil {
		return 0, &CompileError{Index: index, Message: fmt.Sprintf("field %q: %v", field, err)}
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, &CompileError{Index: index, Message: fmt.Sprintf("field %q must be a single rune, got %q", field, s)}
	}
	return runes[0], nil
}

// LoadFile loads a program from a file, dispatching on extension:
// .cue sources go through the CUE compiler, everything else is parsed
// as the text encoding. The program name defaults to the file's base
// name without extension for text sources.
func LoadFile(path string) (*tm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}

	if hasCUEExtension(path) {
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(path))
		p, err := CompileProgram(v)
		if err != nil {
			return nil, wrapWithFile(err, path)
		}
		return p, nil
	}

	p, err := ParseText(baseName(path), string(data))
	if err != nil {
		return nil, wrapWithFile(err, path)
	}
	return p, nil
}

// hasCUEExtension reports whether the path names a CUE source.
func hasCUEExtension(path string) bool {
	return filepath.Ext(path) == ".cue"
}

// baseName strips directory and extension from a path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// wrapWithFile attaches the file name to CompileErrors that lack one.
func wrapWithFile(err error, path string) error {
	if ce, ok := err.(*CompileError); ok && ce.File == "" {
		ce.File = path
		return ce
	}
	return fmt.Errorf("%s: %w", path, err)
}
