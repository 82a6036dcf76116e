package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tapeworks/tmach/internal/machine"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (programs, runs, step_events)
const currentSchemaVersion = 1

// Run statuses.
const (
	StatusHalted        = "halted"
	StatusNoMatch       = "no_match"
	StatusQuotaExceeded = "quota_exceeded"
)

// Run is one recorded execution.
type Run struct {
	ID          string `json:"id"`
	ProgramHash string `json:"program_hash"`
	Input       string `json:"input"`
	MaxSteps    int    `json:"max_steps"`
	Status      string `json:"status"`
	Output      string `json:"output"` // compact final tape, empty unless halted
	Steps       int    `json:"steps"`
	Error       string `json:"error,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// StatusFor maps a run outcome to its status label.
// A nil error means the machine halted normally.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusHalted
	case machine.IsNoMatchingInstruction(err):
		return StatusNoMatch
	case machine.IsStepsExceeded(err):
		return StatusQuotaExceeded
	default:
		// Context cancellation and the like; callers should not record
		// such runs, but the label keeps diagnostics honest.
		return "aborted"
	}
}

// Store provides durable storage for run records and step traces.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// avoids SQLITE_BUSY under concurrent recording.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// scanStepEvent is shared by read and replay paths.
func scanStepEvent(scan func(dest ...any) error) (machine.StepEvent, error) {
	var ev machine.StepEvent
	err := scan(&ev.Seq, &ev.State, &ev.Read, &ev.Index, &ev.Wrote, &ev.Move, &ev.Next)
	return ev, err
}
