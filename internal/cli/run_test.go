package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyInputDefaults(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, _, err := execute(t, "run", prog)
	require.NoError(t, err)
	assert.Equal(t, "0nm\n", stdout)
}

func TestRun_PositionalInput(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, _, err := execute(t, "run", prog, "11")
	require.NoError(t, err)
	assert.Equal(t, "10nm__\n", stdout)
}

func TestRun_JSON(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, _, err := execute(t, "--format", "json", "run", prog, "Th1s_1s_n1ce!!1111")
	require.NoError(t, err)

	var result RunResult
	decodeResponse(t, stdout, &result)
	assert.Equal(t, "measure", result.Program)
	assert.Equal(t, "halted", result.Status)
	assert.Equal(t, "111nm", result.Reading)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Error)
}

func TestRun_NoMatchExitsOne(t *testing.T) {
	prog := writeFile(t, "strict.tm", "0abR1\n")

	stdout, _, err := execute(t, "run", prog, "z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "run failed after 0 steps")
	assert.Contains(t, stdout, "no matching instruction")
}

func TestRun_QuotaExitsOne(t *testing.T) {
	prog := writeFile(t, "shift.tm", "0?*R0\n")

	stdout, _, err := execute(t, "run", prog, "--max-steps", "5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "run failed after 5 steps")
	assert.Contains(t, stdout, "max steps quota")
}

func TestRun_MissingProgramExitsTwo(t *testing.T) {
	_, _, err := execute(t, "run", "does-not-exist.tm")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_InvalidProgramExitsOne(t *testing.T) {
	prog := writeFile(t, "bad.tm", "H?*N0\n")

	stdout, _, err := execute(t, "run", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "program failed validation")
}

func TestRun_TraceFlag(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, _, err := execute(t, "run", prog, "--trace")
	require.NoError(t, err)
	assert.Contains(t, stdout, "state 0 read \" \"")
	assert.Contains(t, stdout, "next H")
	assert.Contains(t, stdout, "0nm\n")
}

// TestRun_DeterministicRunID runs the same program and input twice and
// expects the same content-addressed run ID.
func TestRun_DeterministicRunID(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	var first, second RunResult
	stdout, _, err := execute(t, "--format", "json", "run", prog, "101")
	require.NoError(t, err)
	decodeResponse(t, stdout, &first)

	stdout, _, err = execute(t, "--format", "json", "run", prog, "101")
	require.NoError(t, err)
	decodeResponse(t, stdout, &second)

	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Steps, second.Steps)
}
