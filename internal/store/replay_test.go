package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeworks/tmach/internal/machine"
)

func TestReplayRun_Deterministic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := measureProgram(t)

	run, events := executeRun(t, p, "01101110001110101110011", machine.DefaultMaxSteps)
	require.NoError(t, s.RecordRun(ctx, p, run, events))

	result, err := s.ReplayRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, result.Deterministic)
	assert.Empty(t, result.Mismatches)
	assert.Equal(t, run.ID, result.RunID)
	assert.Equal(t, "measure", result.ProgramName)
	assert.Equal(t, StatusHalted, result.Status)
	assert.Equal(t, run.Steps, result.Steps)
}

func TestReplayRun_FailedRunsReplayToo(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := measureProgram(t)
	quota := 10
	run, events := executeRun(t, p, "111111", quota)
	require.Equal(t, StatusQuotaExceeded, run.Status)
	require.NoError(t, s.RecordRun(ctx, p, run, events))

	result, err := s.ReplayRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, result.Deterministic, "a quota failure replays to the same quota failure")
	assert.Equal(t, StatusQuotaExceeded, result.Status)
}

func TestReplayRun_DetectsTamperedRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := measureProgram(t)

	run, events := executeRun(t, p, "11", machine.DefaultMaxSteps)
	run.Output = "tampered"
	run.Steps += 3
	require.NoError(t, s.RecordRun(ctx, p, run, events))

	result, err := s.ReplayRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, result.Deterministic)
	require.Len(t, result.Mismatches, 2)
	assert.Contains(t, result.Mismatches[0], "output")
	assert.Contains(t, result.Mismatches[1], "steps")
}

func TestReplayRun_DetectsTamperedTrace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := measureProgram(t)

	run, events := executeRun(t, p, "1", machine.DefaultMaxSteps)
	require.NotEmpty(t, events)
	events[0].Next = "9"
	require.NoError(t, s.RecordRun(ctx, p, run, events))

	result, err := s.ReplayRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, result.Deterministic)
	require.Len(t, result.Mismatches, 1)
	assert.Contains(t, result.Mismatches[0], "trace")
	assert.Contains(t, result.Mismatches[0], "event 0")
}

func TestReplayRun_RunWithoutTrace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := measureProgram(t)

	run, _ := executeRun(t, p, "101", machine.DefaultMaxSteps)
	_, err := s.SaveProgram(ctx, p)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(ctx, run))

	result, err := s.ReplayRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, result.Deterministic, "missing trace is not a divergence")
}

func TestReplayRun_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.ReplayRun(context.Background(), "no-such-run")
	require.Error(t, err)
}

func TestReplayAll(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := measureProgram(t)

	for _, input := range []string{"", "1", "11", "Th1s_1s_n1ce!!1111"} {
		run, events := executeRun(t, p, input, machine.DefaultMaxSteps)
		require.NoError(t, s.RecordRun(ctx, p, run, events))
	}

	results, err := s.ReplayAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Deterministic, "run %s diverged: %v", r.RunID, r.Mismatches)
	}
}

func TestDiffTraces(t *testing.T) {
	a := []machine.StepEvent{{Seq: 1, State: "0", Read: " ", Move: "L", Next: "1"}}
	b := []machine.StepEvent{{Seq: 1, State: "0", Read: " ", Move: "L", Next: "2"}}

	assert.Equal(t, "", diffTraces(a, a))
	assert.Contains(t, diffTraces(a, b), "event 0")
	assert.Contains(t, diffTraces(a, nil), "length")
}
