package harness

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_MeasureEmpty(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "measure-empty.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, s))
}

func TestRunWithGolden_ShiftQuota(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "shift-quota.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, s))
}

// TestTraceSnapshotDeterminism marshals the same snapshot twice and
// expects identical bytes, the property golden comparison relies on.
func TestTraceSnapshotDeterminism(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "measure-empty.yaml"))
	require.NoError(t, err)

	marshal := func() []byte {
		result, err := Run(s)
		require.NoError(t, err)
		snapshot := TraceSnapshot{
			ScenarioName: s.Name,
			Status:       result.Status,
			Steps:        result.Steps,
			Tape:         result.Tape,
			Trace:        result.Trace,
		}
		data, err := json.MarshalIndent(snapshot, "", "  ")
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, marshal(), marshal())
}

func TestTraceSnapshotJSON_FieldNames(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "measure-empty.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	snapshot := TraceSnapshot{
		ScenarioName: s.Name,
		Status:       result.Status,
		Steps:        result.Steps,
		Tape:         result.Tape,
		Trace:        result.Trace,
	}
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	js := string(data)
	assert.Contains(t, js, `"scenario_name":"measure-empty"`)
	assert.Contains(t, js, `"status":"halted"`)
	assert.Contains(t, js, `"tape":"0nm"`)
	assert.Contains(t, js, `"trace":[`)
	assert.NotContains(t, js, `"wrote":""`, "omitempty hides empty writes")
}
