package compiler

import (
	"fmt"

	"github.com/tapeworks/tmach/internal/tm"
)

// Severity classifies a validation finding.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Validation error codes.
const (
	CodeEmptyProgram = "empty_program"
	CodeHaltSource   = "halt_source"
	CodeShadowed     = "shadowed"
)

// ValidationError is a single structural finding against a program.
type ValidationError struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Index    int    `json:"index"` // instruction ordinal, -1 for program-level findings
	Message  string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: instruction %d: %s", e.Code, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate performs structural checks on a program and returns every
// finding, errors and warnings alike, in instruction order.
//
// Errors:
//   - empty program
//   - halt state as an instruction source (halt is terminal; such an
//     instruction could never fire)
//
// Warnings:
//   - shadowed instruction: an earlier instruction for the same state
//     matches everything this one matches, so this one is dead. The
//     usual cause is a wildcard declared before a specific input.
func Validate(p *tm.Program) []ValidationError {
	var findings []ValidationError

	if p.Len() == 0 {
		findings = append(findings, ValidationError{
			Code:     CodeEmptyProgram,
			Severity: SeverityError,
			Index:    -1,
			Message:  "program has no instructions",
		})
		return findings
	}

	for i, in := range p.Instructions {
		if in.State == tm.StateHalt {
			findings = append(findings, ValidationError{
				Code:     CodeHaltSource,
				Severity: SeverityError,
				Index:    i,
				Message:  fmt.Sprintf("instruction %q uses the halt state as its source", in),
			})
		}

		for j := 0; j < i; j++ {
			earlier := p.Instructions[j]
			if earlier.State != in.State {
				continue
			}
			if earlier.Input == tm.Wildcard || earlier.Input == in.Input {
				findings = append(findings, ValidationError{
					Code:     CodeShadowed,
					Severity: SeverityWarning,
					Index:    i,
					Message:  fmt.Sprintf("instruction %q is shadowed by earlier instruction %d (%q)", in, j, earlier),
				})
				break
			}
		}
	}

	return findings
}

// HasErrors reports whether any finding is an error (not a warning).
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
