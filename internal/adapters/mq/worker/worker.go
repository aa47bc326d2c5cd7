// Package worker spreads the trials of one simulation run over a pool of
// goroutines, each keeping a private tally that is merged at the end.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/bracketpool/internal/adapters/mq/queue"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/pkg/logger"
	"github.com/okian/bracketpool/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize     = 256
	defaultQueueCapacity = 64
)

// Runner simulates and records single trials. *aggregate.Aggregator satisfies it.
type Runner interface {
	NewTally(plan *aggregate.Plan) *aggregate.Tally
	RunTrial(plan *aggregate.Plan, index int, t *aggregate.Tally) error
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) (queue.Batch, error)
}

// TrialWorker drains batches from a queue into its own tally.
type TrialWorker struct {
	queue  Queue
	runner Runner
	name   string
	logger logger.Logger
}

// NewTrialWorker creates a worker with configuration options.
func NewTrialWorker(q Queue, runner Runner, opts ...Option) *TrialWorker {
	w := &TrialWorker{
		queue:  q,
		runner: runner,
		name:   "worker",
		logger: logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes batches until the queue stops and returns the worker's tally.
func (w *TrialWorker) Run(ctx context.Context, plan *aggregate.Plan) (*aggregate.Tally, error) {
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	tally := w.runner.NewTally(plan)
	for {
		b, err := w.queue.Dequeue(ctx)
		if errors.Is(err, queue.ErrStopped) {
			w.logger.Debug(ctx, "worker drained", logger.String("worker", w.name), logger.Int("trials", tally.Trials()))
			return tally, nil
		}
		if err != nil {
			return nil, err
		}
		if err := w.process(ctx, plan, b, tally); err != nil {
			return nil, err
		}
	}
}

func (w *TrialWorker) process(ctx context.Context, plan *aggregate.Plan, b queue.Batch, tally *aggregate.Tally) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerBatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	for i := b.Start; i < b.End; i++ {
		if err := w.runner.RunTrial(plan, i, tally); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "trial_failed")
			w.logger.Error(ctx, "trial failed",
				logger.String("worker", w.name),
				logger.Int("trial", i),
				logger.Error(err),
			)
			return fmt.Errorf("%s: %w", w.name, err)
		}
	}
	return ctx.Err()
}

// Pool runs a plan across several TrialWorkers.
type Pool struct {
	runner        Runner
	workers       int
	batchSize     int
	queueCapacity int
	logger        logger.Logger
}

// NewPool creates a worker pool. The worker count defaults to runtime.NumCPU().
func NewPool(runner Runner, opts ...PoolOption) *Pool {
	p := &Pool{
		runner:        runner,
		workers:       runtime.NumCPU(),
		batchSize:     defaultBatchSize,
		queueCapacity: defaultQueueCapacity,
		logger:        logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Run executes every trial of plan and returns the merged tally. Results do
// not depend on the worker count because trial streams are keyed by index.
// The first failing trial cancels the other workers.
func (p *Pool) Run(ctx context.Context, plan *aggregate.Plan) (*aggregate.Tally, error) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(p.queueCapacity))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer func() { _ = q.Close() }()
		for start := 0; start < plan.Trials; start += p.batchSize {
			end := min(start+p.batchSize, plan.Trials)
			if err := q.Enqueue(gctx, queue.Batch{Start: start, End: end}); err != nil {
				return err
			}
		}
		return nil
	})

	tallies := make([]*aggregate.Tally, p.workers)
	for i := range tallies {
		w := NewTrialWorker(q, p.runner,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		g.Go(func() error {
			t, err := w.Run(gctx, plan)
			tallies[i] = t
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := p.runner.NewTally(plan)
	for _, t := range tallies {
		total.Merge(t)
	}
	p.logger.Debug(ctx, "pool finished",
		logger.Int("workers", p.workers),
		logger.Int("trials", total.Trials()),
	)
	return total, nil
}
