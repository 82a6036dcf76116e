package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/store"
	"github.com/tapeworks/tmach/internal/tm"
)

// Scenario is a conformance test case: a program, an input, and
// expectations about the run's outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Program names the program source. Exactly one field must be set.
	Program ProgramRef `yaml:"program"`

	// Input is the initial tape content.
	Input string `yaml:"input"`

	// MaxSteps overrides the default step quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Expect holds the outcome expectations. Optional; a scenario with
	// no expectations passes whenever the run doesn't error unexpectedly.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// dir is the scenario file's directory, for resolving Program.File.
	dir string
}

// ProgramRef names a program source in one of three forms.
type ProgramRef struct {
	// File is a path to a .tm or .cue program, relative to the scenario.
	File string `yaml:"file,omitempty"`

	// Source is an inline program in the text encoding (line form).
	Source string `yaml:"source,omitempty"`

	// Compact is an inline program in the compact single-string form.
	Compact string `yaml:"compact,omitempty"`
}

// ExpectClause specifies the expected run outcome.
// Only set fields are checked.
type ExpectClause struct {
	// Status is the expected outcome label:
	// halted, no_match, or quota_exceeded.
	Status string `yaml:"status,omitempty"`

	// Tape is the expected compact final tape.
	Tape *string `yaml:"tape,omitempty"`

	// Reading is the expected measurement reading.
	Reading *string `yaml:"reading,omitempty"`

	// Steps is the expected step count. Zero means unchecked.
	Steps int `yaml:"steps,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks required fields.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	set := 0
	if s.Program.File != "" {
		set++
	}
	if s.Program.Source != "" {
		set++
	}
	if s.Program.Compact != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("program must set exactly one of file, source, compact (got %d)", set)
	}

	if s.Expect != nil && s.Expect.Status != "" {
		switch s.Expect.Status {
		case store.StatusHalted, store.StatusNoMatch, store.StatusQuotaExceeded:
		default:
			return fmt.Errorf("unknown expected status %q", s.Expect.Status)
		}
	}
	return nil
}

// loadProgram resolves the scenario's program reference.
func (s *Scenario) loadProgram() (*tm.Program, error) {
	switch {
	case s.Program.File != "":
		return compiler.LoadFile(filepath.Join(s.dir, s.Program.File))
	case s.Program.Source != "":
		return compiler.ParseText(s.Name, s.Program.Source)
	default:
		return compiler.ParseCompact(s.Name, s.Program.Compact)
	}
}

// Run executes a scenario and checks its expectations.
// Returns an error only for scenario-level problems (unreadable program,
// invalid reference); run failures like no_match are outcomes, not
// errors, and are checked against the expect clause.
func Run(scenario *Scenario) (*Result, error) {
	prog, err := scenario.loadProgram()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	maxSteps := scenario.MaxSteps
	if maxSteps <= 0 {
		maxSteps = machine.DefaultMaxSteps
	}

	tracer := &machine.CollectingTracer{}
	m := machine.New(prog, tm.NewTape(tm.NormalizeInput(scenario.Input)),
		machine.WithMaxSteps(maxSteps),
		machine.WithTracer(tracer),
	)
	tape, runErr := m.Run(context.Background())

	result := NewResult()
	result.Status = store.StatusFor(runErr)
	result.Steps = m.Steps()
	result.Trace = tracer.Events
	if tape != nil {
		result.Tape = tape.Compact()
		result.Reading = tm.Reading(tape)
	}

	checkExpectations(scenario, result)
	return result, nil
}

// checkExpectations applies the expect clause to the result.
func checkExpectations(scenario *Scenario, result *Result) {
	expect := scenario.Expect
	if expect == nil {
		if result.Status != store.StatusHalted {
			result.AddError(fmt.Sprintf("run did not halt: %s", result.Status))
		}
		return
	}

	if expect.Status != "" && result.Status != expect.Status {
		result.AddError(fmt.Sprintf("status: want %q, got %q", expect.Status, result.Status))
	}
	if expect.Tape != nil && result.Tape != *expect.Tape {
		result.AddError(fmt.Sprintf("tape: want %q, got %q", *expect.Tape, result.Tape))
	}
	if expect.Reading != nil && result.Reading != *expect.Reading {
		result.AddError(fmt.Sprintf("reading: want %q, got %q", *expect.Reading, result.Reading))
	}
	if expect.Steps > 0 && result.Steps != expect.Steps {
		result.AddError(fmt.Sprintf("steps: want %d, got %d", expect.Steps, result.Steps))
	}
}
