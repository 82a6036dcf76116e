package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/tm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GetProgram loads a program by hash, reconstructed from its canonical
// source.
func (s *Store) GetProgram(ctx context.Context, hash string) (*tm.Program, error) {
	var name, source string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, source FROM programs WHERE hash = ?`, hash,
	).Scan(&name, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get program %s: %w", hash, err)
	}

	p, err := parseCanonical(name, source)
	if err != nil {
		return nil, fmt.Errorf("get program %s: corrupt source: %w", hash, err)
	}
	return p, nil
}

// GetRun loads a single run record by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program_hash, input, max_steps, status, output, steps, error, created_at
		FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID, &run.ProgramHash, &run.Input, &run.MaxSteps,
		&run.Status, &run.Output, &run.Steps, &run.Error, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all run records in insertion order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_hash, input, max_steps, status, output, steps, error, created_at
		FROM runs ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.ProgramHash, &run.Input, &run.MaxSteps,
			&run.Status, &run.Output, &run.Steps, &run.Error, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ListRunIDs returns every run ID in insertion order.
func (s *Store) ListRunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list run ids: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run ids: %w", err)
	}
	return ids, nil
}

// LoadTrace returns the step events for a run in seq order.
func (s *Store) LoadTrace(ctx context.Context, runID string) ([]machine.StepEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, state, read_symbol, instr_index, wrote, move, next
		FROM step_events WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", runID, err)
	}
	defer rows.Close()

	var events []machine.StepEvent
	for rows.Next() {
		ev, err := scanStepEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("load trace %s: scan: %w", runID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load trace %s: %w", runID, err)
	}
	return events, nil
}
