package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tapeworks/tmach/internal/machine"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Serialized with stable field order for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string              `json:"scenario_name"`
	Status       string              `json:"status"`
	Steps        int                 `json:"steps"`
	Tape         string              `json:"tape"`
	Trace        []machine.StepEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares the trace snapshot
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected trace behavior;
// any semantic change to the interpreter shows up as a golden diff.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Status:       result.Status,
		Steps:        result.Steps,
		Tape:         result.Tape,
		Trace:        result.Trace,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
