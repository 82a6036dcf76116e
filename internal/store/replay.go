package store

import (
	"context"
	"fmt"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/tm"
)

// ReplayResult is the outcome of re-executing one recorded run.
type ReplayResult struct {
	RunID         string   `json:"run_id"`
	ProgramName   string   `json:"program_name"`
	Deterministic bool     `json:"deterministic"`
	Status        string   `json:"status"`
	Steps         int      `json:"steps"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayRun re-executes a recorded run from its stored program and input
// and compares status, output, step count, and the full step trace
// against the record. Any divergence marks the run non-deterministic and
// is listed in Mismatches.
func (s *Store) ReplayRun(ctx context.Context, runID string) (ReplayResult, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}
	prog, err := s.GetProgram(ctx, run.ProgramHash)
	if err != nil {
		return ReplayResult{}, err
	}
	recorded, err := s.LoadTrace(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}

	tracer := &machine.CollectingTracer{}
	m := machine.New(prog, tm.NewTape(run.Input),
		machine.WithMaxSteps(run.MaxSteps),
		machine.WithTracer(tracer),
	)
	tape, runErr := m.Run(ctx)
	if runErr != nil && StatusFor(runErr) == "aborted" {
		// Cancellation is our failure, not the run's.
		return ReplayResult{}, fmt.Errorf("replay run %s: %w", runID, runErr)
	}

	result := ReplayResult{
		RunID:         runID,
		ProgramName:   prog.Name,
		Deterministic: true,
		Status:        StatusFor(runErr),
		Steps:         m.Steps(),
	}

	output := ""
	if tape != nil {
		output = tape.Compact()
	}

	if result.Status != run.Status {
		result.addMismatch("status: recorded %q, replayed %q", run.Status, result.Status)
	}
	if output != run.Output {
		result.addMismatch("output: recorded %q, replayed %q", run.Output, output)
	}
	if m.Steps() != run.Steps {
		result.addMismatch("steps: recorded %d, replayed %d", run.Steps, m.Steps())
	}
	// Runs can be recorded without a trace; only compare when one exists.
	if len(recorded) > 0 {
		if diff := diffTraces(recorded, tracer.Events); diff != "" {
			result.addMismatch("trace: %s", diff)
		}
	}

	return result, nil
}

// ReplayAll replays every recorded run in insertion order.
func (s *Store) ReplayAll(ctx context.Context) ([]ReplayResult, error) {
	ids, err := s.ListRunIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ReplayResult, 0, len(ids))
	for _, id := range ids {
		r, err := s.ReplayRun(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (r *ReplayResult) addMismatch(format string, args ...any) {
	r.Deterministic = false
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

// diffTraces returns a description of the first divergence between two
// traces, or "" if they are identical.
func diffTraces(recorded, replayed []machine.StepEvent) string {
	if len(recorded) != len(replayed) {
		return fmt.Sprintf("length: recorded %d events, replayed %d", len(recorded), len(replayed))
	}
	for i := range recorded {
		if recorded[i] != replayed[i] {
			return fmt.Sprintf("event %d: recorded %+v, replayed %+v", i, recorded[i], replayed[i])
		}
	}
	return ""
}

// parseCanonical reconstructs a program from its stored canonical text.
func parseCanonical(name, source string) (*tm.Program, error) {
	return compiler.ParseText(name, source)
}
