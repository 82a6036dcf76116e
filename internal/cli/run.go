package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/store"
	"github.com/tapeworks/tmach/internal/tm"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MaxSteps int
	Database string
	Trace    bool
}

// RunResult is the run command's output payload.
type RunResult struct {
	RunID   string `json:"run_id"`
	Program string `json:"program"`
	Input   string `json:"input"`
	Status  string `json:"status"`
	Output  string `json:"output"`
	Reading string `json:"reading"`
	Steps   int    `json:"steps"`
	Error   string `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program> [input]",
		Short: "Execute a program against an input tape",
		Long: `Execute a Turing-machine program against an input tape.

The program is a .tm text file (five runes per instruction) or a .cue
definition. The optional positional argument is the initial tape
content; it defaults to an empty tape. With --db, the run and its full
step trace are recorded for later trace inspection and replay.

Exit codes:
  0 - machine halted
  1 - no matching instruction, or step quota exceeded
  2 - command error (unreadable program, invalid flags, etc.)

Examples:
  tmach run programs/measure.tm "Th1s_1s_n1ce!!1111"
  tmach run programs/measure.cue --db ./tmach.db --trace
  tmach run busy.tm --max-steps 500`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 1 {
				input = args[1]
			}
			return runProgram(opts, args[0], input, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", machine.DefaultMaxSteps, "step quota for the run")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the step trace")

	return cmd
}

func runProgram(opts *RunOptions, programPath, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := compiler.LoadFile(programPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load program", err)
	}
	if findings := compiler.Validate(prog); compiler.HasErrors(findings) {
		_ = formatter.Error(ErrCodeValidate, "program failed validation", findings)
		return NewExitError(ExitFailure, "program failed validation")
	}

	input = tm.NormalizeInput(input)
	hash := tm.ProgramHash(prog)
	runID := tm.RunID(hash, input, opts.MaxSteps)
	formatter.VerboseLog("program %s (%d instructions), run %s", prog.Name, prog.Len(), runID)

	tracer := &machine.CollectingTracer{}
	m := machine.New(prog, tm.NewTape(input),
		machine.WithMaxSteps(opts.MaxSteps),
		machine.WithTracer(tracer),
	)
	tape, runErr := m.Run(cmd.Context())
	status := store.StatusFor(runErr)
	if status == "aborted" {
		return WrapExitError(ExitCommandError, "run aborted", runErr)
	}

	result := RunResult{
		RunID:   runID,
		Program: prog.Name,
		Input:   input,
		Status:  status,
		Steps:   m.Steps(),
	}
	if tape != nil {
		result.Output = tape.Compact()
		result.Reading = tm.Reading(tape)
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	if opts.Database != "" {
		if err := recordRun(opts, cmd, prog, result, tracer); err != nil {
			return err
		}
		formatter.VerboseLog("run recorded in %s", opts.Database)
	}

	if err := formatter.SuccessText(result, func(w io.Writer) {
		printRunText(w, result, tracer, opts.Trace)
	}); err != nil {
		return err
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "run failed", runErr)
	}
	return nil
}

// recordRun persists the run and its trace.
func recordRun(opts *RunOptions, cmd *cobra.Command, prog *tm.Program, result RunResult, tracer *machine.CollectingTracer) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run := store.Run{
		ID:          result.RunID,
		ProgramHash: tm.ProgramHash(prog),
		Input:       result.Input,
		MaxSteps:    opts.MaxSteps,
		Status:      result.Status,
		Output:      result.Output,
		Steps:       result.Steps,
		Error:       result.Error,
		CreatedAt:   time.Now().Unix(),
	}
	if err := st.RecordRun(cmd.Context(), prog, run, tracer.Events); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	return nil
}

// printRunText renders the run result for humans.
func printRunText(w io.Writer, result RunResult, tracer *machine.CollectingTracer, withTrace bool) {
	if withTrace {
		for _, ev := range tracer.Events {
			printStepEvent(w, ev)
		}
	}

	switch result.Status {
	case store.StatusHalted:
		fmt.Fprintln(w, result.Output)
	default:
		fmt.Fprintf(w, "run failed after %d steps: %s\n", result.Steps, result.Error)
	}
}
