package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	Run    store.Run           `json:"run"`
	Events []machine.StepEvent `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Print the recorded step trace of a run",
		Long: `Print the recorded step timeline of a run.

Each line shows the logical sequence number, the state and symbol the
machine saw, the instruction that fired, what was written, the head
movement, and the next state.

Examples:
  tmach trace --db ./tmach.db 4f1c...
  tmach trace --db ./tmach.db 4f1c... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}
	events, err := st.LoadTrace(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load trace", err)
	}

	result := TraceResult{Run: run, Events: events}
	return formatter.SuccessText(result, func(w io.Writer) {
		printTraceText(w, result)
	})
}

// printTraceText renders a recorded trace for humans.
func printTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "run %s: input %q, status %s, %d steps\n",
		result.Run.ID, result.Run.Input, result.Run.Status, result.Run.Steps)
	for _, ev := range result.Events {
		printStepEvent(w, ev)
	}
}

// printStepEvent renders one step event line.
func printStepEvent(w io.Writer, ev machine.StepEvent) {
	wrote := ev.Wrote
	if wrote == "" {
		wrote = "-"
	}
	fmt.Fprintf(w, "%6d  state %s read %q  instr %d  wrote %s  move %s  next %s\n",
		ev.Seq, ev.State, ev.Read, ev.Index, wrote, ev.Move, ev.Next)
}
