package tm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramHash_Deterministic(t *testing.T) {
	p := &Program{Instructions: []Instruction{
		{State: '0', Input: Wildcard, Output: NoWrite, Move: MoveLeft, Next: '1'},
	}}

	h1 := ProgramHash(p)
	h2 := ProgramHash(p)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex-encoded SHA-256")
}

func TestProgramHash_IgnoresLabels(t *testing.T) {
	instructions := []Instruction{
		{State: '0', Input: Wildcard, Output: NoWrite, Move: MoveLeft, Next: '1'},
	}
	a := &Program{Name: "a", Description: "first", Instructions: instructions}
	b := &Program{Name: "b", Description: "second", Instructions: instructions}

	assert.Equal(t, ProgramHash(a), ProgramHash(b),
		"name and description are labels, not identity")
}

func TestProgramHash_SensitiveToOrder(t *testing.T) {
	a := &Program{Instructions: []Instruction{
		{State: '0', Input: '1', Output: '0', Move: MoveRight, Next: '0'},
		{State: '0', Input: Wildcard, Output: NoWrite, Move: MoveRight, Next: '0'},
	}}
	b := &Program{Instructions: []Instruction{
		{State: '0', Input: Wildcard, Output: NoWrite, Move: MoveRight, Next: '0'},
		{State: '0', Input: '1', Output: '0', Move: MoveRight, Next: '0'},
	}}

	assert.NotEqual(t, ProgramHash(a), ProgramHash(b),
		"instruction order is part of program identity")
}

func TestRunID_Deterministic(t *testing.T) {
	id1 := RunID("abc123", "input", 1000)
	id2 := RunID("abc123", "input", 1000)
	assert.Equal(t, id1, id2)

	assert.NotEqual(t, id1, RunID("abc123", "input", 2000), "quota is part of run identity")
	assert.NotEqual(t, id1, RunID("abc123", "other", 1000))
	assert.NotEqual(t, id1, RunID("def456", "input", 1000))
}

func TestRunID_NormalizesInput(t *testing.T) {
	composed := "café"
	decomposed := "café"
	require.NotEqual(t, composed, decomposed)

	assert.Equal(t, RunID("h", composed, 100), RunID("h", decomposed, 100),
		"equivalent Unicode inputs share a run identity")
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "café", NormalizeInput("café"))
	assert.Equal(t, "01101", NormalizeInput("01101"))
	assert.Equal(t, "", NormalizeInput(""))
}

func TestHashDomainSeparation(t *testing.T) {
	// The same payload under different domains must not collide.
	p := &Program{Instructions: []Instruction{
		{State: '0', Input: Wildcard, Output: NoWrite, Move: MoveNone, Next: StateHalt},
	}}
	assert.NotEqual(t, ProgramHash(p), hashWithDomain(DomainRun, p.Canonical()))
}

func TestHashFieldBoundaries(t *testing.T) {
	// ("ab", "c") and ("a", "bc") differ only in field boundaries.
	assert.NotEqual(t,
		hashWithDomain(DomainRun, "ab", "c"),
		hashWithDomain(DomainRun, "a", "bc"))
}
