// Package testutil holds helpers shared across package tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/tm"
)

// FixedTokens generates predictable batch tokens ("batch-1", "batch-2",
// ...) for deterministic logs and assertions. Safe for concurrent use.
type FixedTokens struct {
	mu sync.Mutex
	n  int
}

// Generate implements runner.BatchTokenGenerator.
func (f *FixedTokens) Generate() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("batch-%d", f.n)
}

// MustParse parses a compact program source, failing the test on error.
func MustParse(t *testing.T, name, src string) *tm.Program {
	t.Helper()
	p, err := compiler.ParseCompact(name, src)
	if err != nil {
		t.Fatalf("parse program %s: %v", name, err)
	}
	return p
}

// MeasureProgram parses the Normalized Measurement worked example.
func MeasureProgram(t *testing.T) *tm.Program {
	t.Helper()
	return MustParse(t, "measure", tm.MeasureText)
}
