package service

import (
	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/domain/dedupe"
	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkers sets the number of simulation goroutines.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many trials a worker takes at once.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithQueueCapacity sets how many batches may wait for a worker.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithMaxTrials caps the trial count of a single run.
func WithMaxTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTrials = n
		}
	}
}

// WithProbability selects how game winners are drawn.
func WithProbability(mode matchup.Mode) Option {
	return func(s *Service) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// WithRatingScale sets the divisor of the rating difference.
func WithRatingScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithStore sets where finished runs are kept.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDeduper sets how idempotency keys are remembered.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
