package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CleanProgram(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, _, err := execute(t, "validate", prog)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok")
}

func TestValidate_InvalidProgramExitsOne(t *testing.T) {
	prog := writeFile(t, "bad.tm", "0?*NHH?*N0\n")

	stdout, _, err := execute(t, "validate", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "INVALID")
	assert.Contains(t, stdout, "halt_source")
}

func TestValidate_WarningsStillPass(t *testing.T) {
	prog := writeFile(t, "shadow.tm", "0?*R00a*R1\n")

	stdout, _, err := execute(t, "validate", prog)
	require.NoError(t, err, "warnings alone do not fail validation")
	assert.Contains(t, stdout, "shadowed")
}

func TestValidate_ParseErrorIsAFinding(t *testing.T) {
	prog := writeFile(t, "truncated.tm", "0?*L\n")

	stdout, _, err := execute(t, "validate", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "INVALID")
	assert.Contains(t, stdout, "not a multiple of 5")
}

func TestValidate_MultipleFiles(t *testing.T) {
	good := writeFile(t, "good.tm", "0?*NH\n")
	bad := writeFile(t, "bad.tm", "H?*N0\n")

	stdout, _, err := execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "good.tm: ok")
	assert.Contains(t, stdout, "bad.tm: INVALID")
}

const measureCUE = `
program: {
	name: "measure"
	instructions: [
		{state: "0", input: "?", output: "*", move: "L", next: "1"},
		{state: "1", input: " ", output: "m", move: "L", next: "2"},
		{state: "2", input: " ", output: "n", move: "L", next: "3"},
		{state: "3", input: " ", output: "0", move: "R", next: "4"},
		{state: "4", input: "m", output: "*", move: "R", next: "5"},
		{state: "4", input: "?", output: "*", move: "R", next: "4"},
		{state: "5", input: "1", output: "_", move: "L", next: "6"},
		{state: "5", input: " ", output: "*", move: "N", next: "H"},
		{state: "5", input: "?", output: "_", move: "R", next: "5"},
		{state: "6", input: "n", output: "*", move: "L", next: "7"},
		{state: "6", input: "?", output: "*", move: "L", next: "6"},
		{state: "7", input: "1", output: "0", move: "L", next: "7"},
		{state: "7", input: "?", output: "1", move: "R", next: "4"},
	]
}
`

func TestCompile_CUEToText(t *testing.T) {
	cueFile := writeFile(t, "measure.cue", measureCUE)

	stdout, _, err := execute(t, "compile", cueFile)
	require.NoError(t, err)
	assert.Equal(t, measureSource, stdout, "compiled text matches the hand-written encoding")
}

func TestCompile_OutFile(t *testing.T) {
	cueFile := writeFile(t, "measure.cue", measureCUE)
	outFile := filepath.Join(t.TempDir(), "measure.tm")

	stdout, _, err := execute(t, "compile", cueFile, "-o", outFile)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, measureSource, string(data))
}

func TestCompile_JSON(t *testing.T) {
	cueFile := writeFile(t, "measure.cue", measureCUE)

	stdout, _, err := execute(t, "--format", "json", "compile", cueFile)
	require.NoError(t, err)

	var result CompileResult
	decodeResponse(t, stdout, &result)
	assert.Equal(t, "measure", result.Program)
	assert.Equal(t, 13, result.Instructions)
	assert.Len(t, result.Hash, 64)
}

// TestCompile_RunEquivalence runs the same input through both encodings
// of the measurement program; CUE and text must agree.
func TestCompile_RunEquivalence(t *testing.T) {
	cueFile := writeFile(t, "measure.cue", measureCUE)
	tmFile := writeFile(t, "measure.tm", measureSource)

	fromCUE, _, err := execute(t, "run", cueFile, "1111")
	require.NoError(t, err)
	fromText, _, err := execute(t, "run", tmFile, "1111")
	require.NoError(t, err)
	assert.Equal(t, fromText, fromCUE)
}

func TestRecordTraceReplay(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, "--format", "json", "run", prog, "--db", db)
	require.NoError(t, err)

	var run RunResult
	decodeResponse(t, stdout, &run)
	require.NotEmpty(t, run.RunID)

	stdout, _, err = execute(t, "trace", "--db", db, run.RunID)
	require.NoError(t, err)
	assert.Contains(t, stdout, run.RunID)
	assert.Contains(t, stdout, "status halted, 7 steps")
	assert.Contains(t, stdout, "next H")

	stdout, _, err = execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1/1 runs deterministic")

	stdout, _, err = execute(t, "replay", "--db", db, "--run", run.RunID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deterministic")
}

func TestTrace_UnknownRunExitsTwo(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	// Create the database first so the only failure is the missing run.
	prog := writeFile(t, "measure.tm", measureSource)
	_, _, err := execute(t, "run", prog, "--db", db)
	require.NoError(t, err)

	_, _, err = execute(t, "trace", "--db", db, "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	stdout, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found")
}

func TestBatch(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)
	inputs := writeFile(t, "inputs.txt", "1\n11\n111\n")

	stdout, _, err := execute(t, "batch", prog, "--inputs", inputs, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 jobs: 3 halted, 0 no_match, 0 quota_exceeded")
	assert.Contains(t, stdout, `"1nm_"`)
}

func TestBatch_FailedRunExitsOne(t *testing.T) {
	prog := writeFile(t, "shift.tm", "0?*R0\n")
	inputs := writeFile(t, "inputs.txt", "x\n")

	stdout, _, err := execute(t, "batch", prog, "--inputs", inputs, "--max-steps", "5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "quota_exceeded after 5 steps")
}

func TestBatch_RecordsRuns(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)
	inputs := writeFile(t, "inputs.txt", "1\n11\n")
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "batch", prog, "--inputs", inputs, "--db", db)
	require.NoError(t, err)

	stdout, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2/2 runs deterministic")
}

func TestBatch_EmptyInputsExitsTwo(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)
	inputs := writeFile(t, "inputs.txt", "")

	_, _, err := execute(t, "batch", prog, "--inputs", inputs)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand(t *testing.T) {
	scenario := writeFile(t, "pass.yaml", `name: cli-pass
program:
  compact: "0?xNH"
expect:
  status: halted
  tape: "x"
`)

	stdout, _, err := execute(t, "test", scenario)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS  cli-pass")
	assert.Contains(t, stdout, "1/1 scenarios passed")
}

func TestTestCommand_FailureExitsOne(t *testing.T) {
	scenario := writeFile(t, "fail.yaml", `name: cli-fail
program:
  compact: "0?xNH"
expect:
  tape: "y"
`)

	stdout, _, err := execute(t, "test", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "FAIL  cli-fail")
	assert.Contains(t, stdout, `tape: want "y", got "x"`)
}

func TestTestCommand_BadScenarioExitsTwo(t *testing.T) {
	scenario := writeFile(t, "bad.yaml", "nmae: typo\n")

	_, _, err := execute(t, "test", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerboseLogsGoToStderr(t *testing.T) {
	prog := writeFile(t, "measure.tm", measureSource)

	stdout, stderr, err := execute(t, "-v", "--format", "json", "run", prog)
	require.NoError(t, err)

	var run RunResult
	decodeResponse(t, stdout, &run)
	assert.Contains(t, stderr, fmt.Sprintf("run %s", run.RunID))
}
