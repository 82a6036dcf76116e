package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/tm"
)

// SaveProgram inserts a program record keyed by its content hash.
// Idempotent: re-saving the same program is a no-op.
// Returns the program hash.
func (s *Store) SaveProgram(ctx context.Context, p *tm.Program) (string, error) {
	hash := tm.ProgramHash(p)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (hash, name, source)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, p.Name, p.Canonical())
	if err != nil {
		return "", fmt.Errorf("save program %s: %w", p.Name, err)
	}
	return hash, nil
}

// SaveRun inserts a run record. Idempotent on run ID.
// The referenced program must already exist (foreign key constraint).
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	if err := execSaveRun(ctx, s.db, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveTrace inserts the step events for a run in a single transaction.
// Idempotent on (run_id, seq).
func (s *Store) SaveTrace(ctx context.Context, runID string, events []machine.StepEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save trace %s: begin tx: %w", runID, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := execSaveTrace(ctx, tx, runID, events); err != nil {
		return fmt.Errorf("save trace %s: %w", runID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save trace %s: commit: %w", runID, err)
	}
	return nil
}

// RecordRun writes program, run, and trace atomically.
// Either all three land or none do, so crash recovery never finds a run
// without its program or trace.
func (s *Store) RecordRun(ctx context.Context, p *tm.Program, run Run, events []machine.StepEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run %s: begin tx: %w", run.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (hash, name, source)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, run.ProgramHash, p.Name, p.Canonical())
	if err != nil {
		return fmt.Errorf("record run %s: program: %w", run.ID, err)
	}

	if err := execSaveRun(ctx, tx, run); err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	if err := execSaveTrace(ctx, tx, run.ID, events); err != nil {
		return fmt.Errorf("record run %s: trace: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return nil
}

// execer abstracts *sql.DB and *sql.Tx for shared statements.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSaveRun(ctx context.Context, db execer, run Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_hash, input, max_steps, status, output, steps, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ProgramHash,
		run.Input,
		run.MaxSteps,
		run.Status,
		run.Output,
		run.Steps,
		run.Error,
		run.CreatedAt,
	)
	return err
}

func execSaveTrace(ctx context.Context, db execer, runID string, events []machine.StepEvent) error {
	for _, ev := range events {
		_, err := db.ExecContext(ctx, `
			INSERT INTO step_events
			(run_id, seq, state, read_symbol, instr_index, wrote, move, next)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`,
			runID,
			ev.Seq,
			ev.State,
			ev.Read,
			ev.Index,
			ev.Wrote,
			ev.Move,
			ev.Next,
		)
		if err != nil {
			return fmt.Errorf("step %d: %w", ev.Seq, err)
		}
	}
	return nil
}
