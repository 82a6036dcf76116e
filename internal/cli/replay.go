package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayCommandResult holds the overall replay result.
type ReplayCommandResult struct {
	Runs             []store.ReplayResult `json:"runs"`
	TotalRuns        int                  `json:"total_runs"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute recorded runs from their stored programs and inputs and
verify that status, output, step count, and the full step trace match
the records.

Exit codes:
  0 - all replayed runs are deterministic
  1 - at least one run diverged from its record
  2 - command error (database not found, etc.)

Examples:
  tmach replay --db ./tmach.db
  tmach replay --db ./tmach.db --run 4f1c...
  tmach replay --db ./tmach.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var results []store.ReplayResult
	if opts.RunID != "" {
		r, err := st.ReplayRun(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay run", err)
		}
		results = []store.ReplayResult{r}
	} else {
		results, err = st.ReplayAll(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay runs", err)
		}
	}

	result := ReplayCommandResult{
		Runs:             results,
		TotalRuns:        len(results),
		AllDeterministic: true,
	}
	for _, r := range results {
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if err := formatter.SuccessText(result, func(w io.Writer) {
		printReplayText(w, result)
	}); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// printReplayText renders replay results for humans.
func printReplayText(w io.Writer, result ReplayCommandResult) {
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	for _, r := range result.Runs {
		verdict := "deterministic"
		if !r.Deterministic {
			verdict = "DIVERGED"
		}
		fmt.Fprintf(w, "%s  %s (%s, %d steps): %s\n", r.RunID, r.ProgramName, r.Status, r.Steps, verdict)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "    %s\n", m)
		}
	}
	fmt.Fprintf(w, "%d/%d runs deterministic\n", result.TotalRuns-countDiverged(result.Runs), result.TotalRuns)
}

func countDiverged(runs []store.ReplayResult) int {
	n := 0
	for _, r := range runs {
		if !r.Deterministic {
			n++
		}
	}
	return n
}
