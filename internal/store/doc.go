// Package store provides durable storage for recorded runs.
//
// Backed by SQLite with WAL mode and a single writer connection. Three
// tables: programs (content-addressed source), runs (one row per
// execution), and step_events (the full step trace). All writes are
// idempotent via ON CONFLICT DO NOTHING, so re-recording the same run is
// a no-op, and RecordRun writes program, run, and trace in a single
// transaction so a crash never leaves a run without its trace.
package store
