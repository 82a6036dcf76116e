package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/compiler"
)

// ValidationReport holds validation results for one program file.
type ValidationReport struct {
	File     string                     `json:"file"`
	Valid    bool                       `json:"valid"`
	Findings []compiler.ValidationError `json:"findings,omitempty"`
}

// ValidateResult is the validate command's output payload.
type ValidateResult struct {
	Valid   bool               `json:"valid"`
	Reports []ValidationReport `json:"reports"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>...",
		Short: "Validate programs without executing them",
		Long: `Validate Turing-machine programs without executing them.

Checks each program parses, that the halt state is never an instruction
source, and reports shadowed (dead) instructions.

Exit codes:
  0 - all programs valid (warnings allowed)
  1 - at least one program invalid
  2 - command error (unreadable file, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := ValidateResult{Valid: true}
	for _, path := range paths {
		report, err := validateFile(path)
		if err != nil {
			return err
		}
		if !report.Valid {
			result.Valid = false
		}
		result.Reports = append(result.Reports, report)
	}

	if err := formatter.SuccessText(result, func(w io.Writer) {
		printValidateText(w, result)
	}); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateFile loads and validates one program file.
// Parse errors become findings; unreadable files are command errors.
func validateFile(path string) (ValidationReport, error) {
	report := ValidationReport{File: path, Valid: true}

	prog, err := compiler.LoadFile(path)
	if err != nil {
		if ce, ok := asCompileError(err); ok {
			report.Valid = false
			report.Findings = append(report.Findings, compiler.ValidationError{
				Code:     ErrCodeParse,
				Severity: compiler.SeverityError,
				Index:    ce.Index,
				Message:  ce.Message,
			})
			return report, nil
		}
		return ValidationReport{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}

	findings := compiler.Validate(prog)
	report.Findings = findings
	report.Valid = !compiler.HasErrors(findings)
	return report, nil
}

// asCompileError unwraps a compiler.CompileError if present.
func asCompileError(err error) (*compiler.CompileError, bool) {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// printValidateText renders validation reports for humans.
func printValidateText(w io.Writer, result ValidateResult) {
	for _, report := range result.Reports {
		verdict := "ok"
		if !report.Valid {
			verdict = "INVALID"
		}
		fmt.Fprintf(w, "%s: %s\n", report.File, verdict)
		for _, f := range report.Findings {
			fmt.Fprintf(w, "  %s: %s\n", f.Severity, f.Error())
		}
	}
}
