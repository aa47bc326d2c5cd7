package service

import (
	"context"

	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/config"
	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/dedupe"
	"github.com/okian/bracketpool/internal/domain/matchup"
)

// FilesFromConfig returns the dataset inputs named by cfg.
func FilesFromConfig(cfg *config.Config) Files {
	return Files{
		Teams:      cfg.TeamsFile,
		Seeds:      cfg.SeedsFile,
		Picks:      cfg.PicksFile,
		BasePoints: cfg.BasePointsFile,
	}
}

// Build loads the dataset named by cfg and creates a Service configured from
// it. Extra options are applied after the configured ones.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	mode, err := matchup.ParseMode(cfg.Probability)
	if err != nil {
		return nil, err
	}
	data, err := LoadDataset(ctx, FilesFromConfig(cfg), bracket.WithStartRound(cfg.StartRound))
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithWorkers(cfg.Workers),
		WithBatchSize(cfg.BatchSize),
		WithQueueCapacity(cfg.QueueCapacity),
		WithMaxTrials(cfg.MaxTrials),
		WithProbability(mode),
		WithRatingScale(cfg.RatingScale),
		WithStore(repository.NewMemoryStore(repository.WithMaxRuns(cfg.MaxStoredRuns))),
		WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.IdempotencyKeys))),
	}
	return New(data, append(base, opts...)...)
}
