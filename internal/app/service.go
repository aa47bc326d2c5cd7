// Package service wires the simulation engine, the worker pool and the run
// store together behind the operations the HTTP API and the CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bracketpool/internal/adapters/mq/worker"
	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/dedupe"
	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/internal/domain/scoring"
	"github.com/okian/bracketpool/internal/domain/simulation"
	"github.com/okian/bracketpool/internal/domain/standings"
	"github.com/okian/bracketpool/pkg/logger"
	"github.com/okian/bracketpool/pkg/metrics"
)

const defaultMaxTrials = 1_000_000

// Service runs simulations over one loaded Dataset. Safe for concurrent use.
type Service struct {
	data       *Dataset
	aggregator *aggregate.Aggregator
	pool       *worker.Pool
	store      repository.Store
	deduper    dedupe.Deduper

	workers       int
	batchSize     int
	queueCapacity int
	maxTrials     int
	mode          matchup.Mode
	scale         float64

	started time.Time
	logger  logger.Logger
}

// New builds the engine for data. In scaled mode every seeded team needs a
// rating, otherwise ErrDataIntegrity is returned.
func New(data *Dataset, opts ...Option) (*Service, error) {
	if data == nil {
		return nil, ErrNoDataset
	}
	s := &Service{
		data:      data,
		workers:   runtime.NumCPU(),
		maxTrials: defaultMaxTrials,
		mode:      matchup.ModeScaled,
		scale:     matchup.DefaultScale,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper()
	}
	if err := data.validate(s.mode == matchup.ModeScaled); err != nil {
		return nil, err
	}

	resolver := matchup.NewResolver(data.Ratings, matchup.WithMode(s.mode), matchup.WithScale(s.scale))
	scorer := scoring.NewPickScorer(scoring.WithBracket(data.Graph))
	s.aggregator = aggregate.New(simulation.New(data.Graph, resolver), scorer, data.Participants)
	s.pool = worker.NewPool(s.aggregator,
		worker.WithWorkers(s.workers),
		worker.WithBatchSize(s.batchSize),
		worker.WithQueueCapacity(s.queueCapacity),
		worker.WithPoolLogger(s.logger.Named("pool")),
	)

	metrics.UpdateParticipants(len(data.Participants))
	s.logger.Info(context.Background(), "simulation service ready",
		logger.Int("teams", data.Graph.Size()),
		logger.Int("rounds", data.Graph.Rounds()),
		logger.Int("start_round", data.Graph.StartRound()),
		logger.Int("participants", len(data.Participants)),
		logger.Int("workers", s.pool.Workers()),
		logger.String("probability", string(s.mode)),
	)
	return s, nil
}

// Dataset returns the loaded contest.
func (s *Service) Dataset() *Dataset { return s.data }

// MaxTrials returns the per-run trial cap.
func (s *Service) MaxTrials() int { return s.maxTrials }

// Simulate runs req across the worker pool and stores the result. The stored
// request carries the resolved seed so the run can be replayed.
func (s *Service) Simulate(ctx context.Context, req aggregate.Request) (repository.Run, error) {
	if req.Trials > s.maxTrials {
		return repository.Run{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyTrials, req.Trials, s.maxTrials)
	}
	plan, err := s.aggregator.Prepare(req)
	if err != nil {
		metrics.RecordErrorByComponent("service", "invalid_request")
		return repository.Run{}, err
	}
	metrics.RecordForcedPins(plan.Constraints.ForcedPins())

	start := time.Now()
	tally, err := s.pool.Run(ctx, plan)
	if err != nil {
		metrics.RecordRunFailed()
		s.logger.Error(ctx, "simulation failed",
			logger.Int("trials", plan.Trials),
			logger.Int64("seed", plan.Seed),
			logger.Error(err),
		)
		return repository.Run{}, err
	}
	took := time.Since(start)

	seed := plan.Seed
	req.Seed = &seed
	req.TiePolicy = plan.TiePolicy
	run := repository.Run{
		ID:        uuid.NewString(),
		CreatedAt: start.UTC(),
		Duration:  took,
		Request:   req,
		Stats:     tally.Finalize(),
	}
	if err := s.store.Save(ctx, run); err != nil {
		return repository.Run{}, err
	}
	metrics.RecordRunCompleted(plan.Trials, took)

	s.logger.Info(ctx, "simulation finished",
		logger.String("run_id", run.ID),
		logger.Int("trials", plan.Trials),
		logger.Int64("seed", plan.Seed),
		logger.Int("forced_pins", plan.Constraints.ForcedPins()),
		logger.Duration("took", took),
	)
	return run, nil
}

// SimulateOnce runs req unless key was used before, in which case the run
// stored for key is returned with replayed set. An empty key always runs.
// A key whose run has been evicted from the store runs again. Reusing a key
// with a different request fails with dedupe.ErrKeyReused.
func (s *Service) SimulateOnce(ctx context.Context, key string, req aggregate.Request) (run repository.Run, replayed bool, err error) {
	if key == "" {
		run, err = s.Simulate(ctx, req)
		return run, false, err
	}

	fingerprint := req.Fingerprint()
	runID, seen, err := s.deduper.Claim(ctx, key, fingerprint)
	if err != nil {
		return repository.Run{}, false, err
	}
	if seen {
		if runID == "" {
			return repository.Run{}, false, fmt.Errorf("%w: %s", dedupe.ErrInProgress, key)
		}
		run, err = s.store.Get(ctx, runID)
		if err == nil {
			metrics.RecordRunReplayed()
			s.logger.Debug(ctx, "replaying stored run", logger.String("key", key), logger.String("run_id", runID))
			return run, true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repository.Run{}, false, err
		}
		s.deduper.Release(ctx, key)
		if _, seen, err := s.deduper.Claim(ctx, key, fingerprint); err != nil {
			return repository.Run{}, false, err
		} else if seen {
			return repository.Run{}, false, fmt.Errorf("%w: %s", dedupe.ErrInProgress, key)
		}
	}

	run, err = s.Simulate(ctx, req)
	if err != nil {
		s.deduper.Release(ctx, key)
		return repository.Run{}, false, err
	}
	s.deduper.Bind(ctx, key, run.ID)
	return run, false, nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id string) (repository.Run, error) {
	return s.store.Get(ctx, id)
}

// ListRuns returns up to limit run summaries, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]repository.Summary, error) {
	return s.store.List(ctx, limit)
}

// Standings ranks the participants of a stored run by first-place share.
func (s *Service) Standings(ctx context.Context, id string, limit int) ([]standings.Entry, error) {
	return s.store.Standings(ctx, id, limit)
}

// GetStats returns service statistics for monitoring and refreshes the
// system gauges.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()

	metrics.UpdateSystemMemoryUsage(mem.HeapInuse)
	metrics.UpdateSystemGoroutineCount(goroutines)
	if mem.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(mem.PauseNs[(mem.NumGC+255)%256]) / 1e6)
	}

	return map[string]any{
		"uptime_seconds": time.Since(s.started).Seconds(),
		"workers":        s.pool.Workers(),
		"max_trials":     s.maxTrials,
		"probability":    string(s.mode),
		"teams":          s.data.Graph.Size(),
		"rounds":         s.data.Graph.Rounds(),
		"start_round":    s.data.Graph.StartRound(),
		"participants":   len(s.data.Participants),
		"stored_runs":    s.store.Count(ctx),
		"request_keys":   s.deduper.Size(),
		"goroutines":     goroutines,
		"heap_bytes":     mem.HeapInuse,
	}
}
