package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietdv277/autoclass/pkg/types"
)

// DefaultConcurrency is the default number of buckets migrated in parallel.
const DefaultConcurrency = 20

// errNotDispatched marks rows that were never handed to a worker.
var errNotDispatched = errors.New("not processed")

// Migrator migrates a single bucket. *Updater implements it.
type Migrator interface {
	Update(ctx context.Context, id types.BucketIdentity) types.MigrationResult
}

// Orchestrator runs a Migrator over a list of buckets on a bounded worker pool.
type Orchestrator struct {
	migrator    Migrator
	concurrency int
	runID       string
	logger      *zap.Logger
	onResult    func(types.MigrationResult)
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the number of workers.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithRunID sets the run identifier reported in the summary.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithProgress registers fn to be called, from a single goroutine, after each
// bucket completes.
func WithProgress(fn func(types.MigrationResult)) Option {
	return func(o *Orchestrator) { o.onResult = fn }
}

// NewOrchestrator creates an Orchestrator around m.
func NewOrchestrator(m Migrator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		migrator:    m,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return o
}

type job struct {
	idx int
	id  types.BucketIdentity
}

type completed struct {
	idx int
	res types.MigrationResult
}

// Run migrates every identity and returns exactly one result per identity,
// in input order. Rows not dispatched because ctx was cancelled come back as
// errors rather than being dropped.
func (o *Orchestrator) Run(ctx context.Context, ids []types.BucketIdentity) ([]types.MigrationResult, types.Summary) {
	start := time.Now()
	log := o.logger.With(zap.String("run_id", o.runID))

	workers := min(o.concurrency, len(ids))
	log.Info("Starting migration", zap.Int("buckets", len(ids)), zap.Int("workers", workers))

	jobs := make(chan job)
	done := make(chan completed, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				done <- completed{idx: j.idx, res: o.update(ctx, log, j.id)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			select {
			case jobs <- job{idx: i, id: id}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	results := make([]types.MigrationResult, len(ids))
	filled := make([]bool, len(ids))
	for c := range done {
		results[c.idx] = c.res
		filled[c.idx] = true
		if o.onResult != nil {
			o.onResult(c.res)
		}
	}

	summary := types.Summary{RunID: o.runID}
	for i := range results {
		if !filled[i] {
			err := errNotDispatched
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", errNotDispatched, ctx.Err())
			}
			results[i] = types.ErrorResult(ids[i], err)
			if o.onResult != nil {
				o.onResult(results[i])
			}
		}
		summary.Add(results[i])
	}
	summary.Elapsed = time.Since(start)

	log.Info("Migration finished",
		zap.Int("total", summary.Total),
		zap.Int("migrated", summary.Migrated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("dry_run", summary.DryRun),
		zap.Int("errors", summary.Errors),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return results, summary
}

// update calls the Migrator, turning a panic into an error row so that no
// row is lost.
func (o *Orchestrator) update(ctx context.Context, log *zap.Logger, id types.BucketIdentity) (res types.MigrationResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected failure: %v", r)
			log.Error("Error in processing worker",
				zap.String("project", id.ProjectID),
				zap.String("bucket", id.BucketName),
				zap.Error(err),
			)
			res = types.ErrorResult(id, err)
		}
	}()

	res = o.migrator.Update(ctx, id)
	res.Identity = id
	if res.Status == "" {
		res = types.ErrorResult(id, errors.New("migrator returned no status"))
	}
	return res
}
