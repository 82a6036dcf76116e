package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/runner"
	"github.com/tapeworks/tmach/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Inputs   string
	Workers  int
	MaxSteps int
	Database string
}

// BatchCommandResult is the batch command's output payload.
type BatchCommandResult struct {
	Program string          `json:"program"`
	Results []runner.Result `json:"results"`
	Stats   runner.Stats    `json:"stats"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <program>",
		Short: "Run a program against many inputs concurrently",
		Long: `Run one program against many inputs over a worker pool.

The inputs file holds one input per line. Lines are taken verbatim
apart from the line ending, since a blank is a significant tape symbol.
Results are reported in input order regardless of scheduling. With
--db, every run is recorded with its full trace.

Exit codes:
  0 - every run halted
  1 - at least one run failed (no match or quota exceeded)
  2 - command error

Examples:
  tmach batch programs/measure.tm --inputs samples.txt
  tmach batch programs/measure.tm --inputs samples.txt --workers 8 --db ./tmach.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Inputs, "inputs", "", "file with one input per line (required)")
	_ = cmd.MarkFlagRequired("inputs")
	cmd.Flags().IntVar(&opts.Workers, "workers", runner.DefaultWorkers, "number of worker goroutines")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "step quota per run (0 = default)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runBatch(opts *BatchOptions, programPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := compiler.LoadFile(programPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load program", err)
	}
	if findings := compiler.Validate(prog); compiler.HasErrors(findings) {
		_ = formatter.Error(ErrCodeValidate, "program failed validation", findings)
		return NewExitError(ExitFailure, "program failed validation")
	}

	inputs, err := readInputs(opts.Inputs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read inputs", err)
	}
	if len(inputs) == 0 {
		return NewExitError(ExitCommandError, "inputs file is empty")
	}

	poolOpts := []runner.PoolOption{runner.WithWorkers(opts.Workers)}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		poolOpts = append(poolOpts, runner.WithStore(st))
	}

	jobs := make([]runner.Job, len(inputs))
	for i, input := range inputs {
		jobs[i] = runner.Job{Program: prog, Input: input, MaxSteps: opts.MaxSteps}
	}

	pool := runner.NewPool(poolOpts...)
	results := pool.Run(cmd.Context(), jobs)
	stats := runner.Summarize(results)

	result := BatchCommandResult{Program: prog.Name, Results: results, Stats: stats}
	if err := formatter.SuccessText(result, func(w io.Writer) {
		printBatchText(w, inputs, result)
	}); err != nil {
		return err
	}

	if stats.Halted != stats.Jobs {
		return NewExitError(ExitFailure, "batch had failed runs")
	}
	return nil
}

// readInputs loads one input per line. Only the line ending is
// stripped; leading and trailing blanks are significant tape symbols.
func readInputs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		inputs = append(inputs, strings.TrimRight(scanner.Text(), "\r"))
	}
	return inputs, scanner.Err()
}

// printBatchText renders batch results for humans.
func printBatchText(w io.Writer, inputs []string, result BatchCommandResult) {
	for i, r := range result.Results {
		switch r.Status {
		case store.StatusHalted:
			fmt.Fprintf(w, "%4d  %q -> %q (%d steps)\n", i, inputs[i], r.Output, r.Steps)
		default:
			fmt.Fprintf(w, "%4d  %q -> %s after %d steps\n", i, inputs[i], r.Status, r.Steps)
		}
	}
	fmt.Fprintf(w, "%d jobs: %d halted, %d no_match, %d quota_exceeded\n",
		result.Stats.Jobs, result.Stats.Halted, result.Stats.NoMatch, result.Stats.QuotaExceeded)
}
