package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/harness"
)

// ScenarioReport holds the outcome of one scenario.
type ScenarioReport struct {
	File   string   `json:"file"`
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Status string   `json:"status"`
	Steps  int      `json:"steps"`
	Errors []string `json:"errors,omitempty"`
}

// TestCommandResult is the test command's output payload.
type TestCommandResult struct {
	Pass      bool             `json:"pass"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios: each scenario executes a program
against an input and checks the outcome (status, final tape,
measurement reading, step count).

Exit codes:
  0 - all scenarios pass
  1 - at least one scenario failed
  2 - command error (unreadable scenario, invalid program reference)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := TestCommandResult{Pass: true}
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}

		outcome, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run scenario", err)
		}

		report := ScenarioReport{
			File:   path,
			Name:   scenario.Name,
			Pass:   outcome.Pass,
			Status: outcome.Status,
			Steps:  outcome.Steps,
			Errors: outcome.Errors,
		}
		if !report.Pass {
			result.Pass = false
		}
		result.Scenarios = append(result.Scenarios, report)
	}

	if err := formatter.SuccessText(result, func(w io.Writer) {
		printTestText(w, result)
	}); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, "scenarios failed")
	}
	return nil
}

// printTestText renders scenario outcomes for humans.
func printTestText(w io.Writer, result TestCommandResult) {
	passed := 0
	for _, s := range result.Scenarios {
		verdict := "PASS"
		if s.Pass {
			passed++
		} else {
			verdict = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s (%s, %d steps)\n", verdict, s.Name, s.Status, s.Steps)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "      %s\n", e)
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", passed, len(result.Scenarios))
}
