// Package runner executes batches of machine runs over a worker pool.
//
// Execution of a single job is deterministic; the pool only parallelizes
// independent jobs. Results come back in job order regardless of
// scheduling, and a shared atomic counter tracks completions so a batch
// can assert that every worker checked in before the join barrier lifts.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tapeworks/tmach/internal/machine"
	"github.com/tapeworks/tmach/internal/store"
	"github.com/tapeworks/tmach/internal/tm"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 4

// BatchTokenGenerator generates correlation tokens for batch executions.
// Implemented by UUIDv7Generator (production) and fixed generators in
// tests for deterministic logs.
type BatchTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDs.
type UUIDv7Generator struct{}

// Generate implements BatchTokenGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Job is one (program, input) execution request.
type Job struct {
	Program  *tm.Program
	Input    string
	MaxSteps int // 0 means machine.DefaultMaxSteps
}

// Result is the outcome of one job.
type Result struct {
	Index   int    `json:"index"`   // position in the submitted batch
	RunID   string `json:"run_id"`  // content-addressed run identity
	Status  string `json:"status"`  // halted | no_match | quota_exceeded | aborted
	Output  string `json:"output"`  // compact final tape, empty unless halted
	Reading string `json:"reading"` // measurement reading, empty unless halted
	Steps   int    `json:"steps"`
	Err     error  `json:"-"`
}

// Pool runs batches of jobs across a fixed number of workers.
type Pool struct {
	workers int
	store   *store.Store
	tokens  BatchTokenGenerator
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithStore enables persistence: every completed run is recorded with
// its full trace.
func WithStore(s *store.Store) PoolOption {
	return func(p *Pool) {
		p.store = s
	}
}

// WithTokenGenerator replaces the batch token generator (for tests).
func WithTokenGenerator(g BatchTokenGenerator) PoolOption {
	return func(p *Pool) {
		p.tokens = g
	}
}

// NewPool creates a pool with the given options.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		workers: DefaultWorkers,
		tokens:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes all jobs and returns their results in job order.
//
// Workers pull job indices from a shared channel; each completion does
// one atomic increment on the shared counter. The WaitGroup is the join
// barrier: when Run returns, every job has a result and the counter
// equals the batch size.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	batch := p.tokens.Generate()
	slog.Info("batch starting", "batch", batch, "jobs", len(jobs), "workers", p.workers)

	results := make([]Result, len(jobs))
	indices := make(chan int)
	var completed atomic.Int64
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				results[idx] = p.execute(ctx, batch, idx, jobs[idx])
				completed.Add(1)
			}
		}()
	}

	for i := range jobs {
		indices <- i
	}
	close(indices)
	wg.Wait()

	slog.Info("batch complete",
		"batch", batch,
		"jobs", len(jobs),
		"completed", completed.Load(),
	)
	return results
}

// execute runs one job and records it if persistence is enabled.
func (p *Pool) execute(ctx context.Context, batch string, index int, job Job) Result {
	input := tm.NormalizeInput(job.Input)
	maxSteps := job.MaxSteps
	if maxSteps <= 0 {
		maxSteps = machine.DefaultMaxSteps
	}

	hash := tm.ProgramHash(job.Program)
	runID := tm.RunID(hash, input, maxSteps)

	tracer := &machine.CollectingTracer{}
	m := machine.New(job.Program, tm.NewTape(input),
		machine.WithMaxSteps(maxSteps),
		machine.WithTracer(tracer),
	)
	tape, err := m.Run(ctx)

	result := Result{
		Index:  index,
		RunID:  runID,
		Status: store.StatusFor(err),
		Steps:  m.Steps(),
		Err:    err,
	}
	if tape != nil {
		result.Output = tape.Compact()
		result.Reading = tm.Reading(tape)
	}

	if p.store != nil && result.Status != "aborted" {
		run := store.Run{
			ID:          runID,
			ProgramHash: hash,
			Input:       input,
			MaxSteps:    maxSteps,
			Status:      result.Status,
			Output:      result.Output,
			Steps:       result.Steps,
			CreatedAt:   time.Now().Unix(),
		}
		if err != nil {
			run.Error = err.Error()
		}
		if recErr := p.store.RecordRun(ctx, job.Program, run, tracer.Events); recErr != nil {
			slog.Error("run recording failed",
				"batch", batch,
				"run", runID,
				"error", recErr,
			)
			result.Err = recErr
		}
	}

	return result
}

// Stats summarizes a batch's results.
type Stats struct {
	Jobs          int `json:"jobs"`
	Halted        int `json:"halted"`
	NoMatch       int `json:"no_match"`
	QuotaExceeded int `json:"quota_exceeded"`
	Aborted       int `json:"aborted"`
}

// Summarize tallies results by status.
func Summarize(results []Result) Stats {
	s := Stats{Jobs: len(results)}
	for _, r := range results {
		switch r.Status {
		case store.StatusHalted:
			s.Halted++
		case store.StatusNoMatch:
			s.NoMatch++
		case store.StatusQuotaExceeded:
			s.QuotaExceeded++
		default:
			s.Aborted++
		}
	}
	return s
}
