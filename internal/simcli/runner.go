package simcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bracketpool/internal/adapters/csvio"
	"github.com/okian/bracketpool/internal/adapters/repository"
	service "github.com/okian/bracketpool/internal/app"
	"github.com/okian/bracketpool/internal/config"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/pkg/logger"
)

// maxRemoteStandings caps the standings page requested from a server.
const maxRemoteStandings = 500

// Run executes one simulation described by cfg and opts, writes the
// configured output files and logs a summary.
func Run(ctx context.Context, cfg *config.Config, opts *Options) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	req, err := RequestFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Get().Info(ctx, "starting bracketpool simulation",
		logger.Int("trials", req.Trials),
		logger.Int("workers", cfg.Workers),
		logger.Int("forced", len(req.Forced)),
		logger.String("focal", req.Focal),
		logger.String("remote", opts.Remote),
	)

	start := time.Now()
	var summary *Summary
	if opts.Remote != "" {
		summary, err = runRemote(ctx, opts, req)
	} else {
		summary, err = runLocal(ctx, cfg, req)
	}
	if err != nil {
		return nil, err
	}
	summary.Took = time.Since(start)

	if cfg.OutputFile != "" {
		if err := writeFile(cfg.OutputFile, func(w io.Writer) error { return csvio.WriteResults(w, summary.Stats) }); err != nil {
			return nil, err
		}
		logger.Get().Info(ctx, "results written", logger.String("file", cfg.OutputFile))
	}
	if opts.FocalFile != "" {
		if summary.Stats.Focal == nil {
			logger.Get().Warn(ctx, "focal output requested without a focal participant", logger.String("file", opts.FocalFile))
		} else {
			if err := writeFile(opts.FocalFile, func(w io.Writer) error { return csvio.WriteFocal(w, summary.Stats) }); err != nil {
				return nil, err
			}
			logger.Get().Info(ctx, "focal table written", logger.String("file", opts.FocalFile))
		}
	}

	displayFinalStats(ctx, summary, opts.TopN)
	return summary, nil
}

// RequestFromConfig builds a simulation request, reading forced outcomes
// from cfg.ForcedFile when it is set.
func RequestFromConfig(cfg *config.Config) (aggregate.Request, error) {
	req := aggregate.Request{
		Trials:     cfg.Trials,
		Focal:      cfg.Focal,
		ExampleCap: cfg.ExampleCap,
		Seed:       cfg.Seed,
		TiePolicy:  model.TiePolicy(cfg.TiePolicy),
	}
	if cfg.ForcedFile != "" {
		forced, err := csvio.ReadFile(cfg.ForcedFile, csvio.ReadForced)
		if err != nil {
			return aggregate.Request{}, err
		}
		req.Forced = forced
	}
	return req, nil
}

func runLocal(ctx context.Context, cfg *config.Config, req aggregate.Request) (*Summary, error) {
	svc, err := service.Build(ctx, cfg, service.WithLogger(logger.Named("service")))
	if err != nil {
		return nil, err
	}
	run, err := svc.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Summary{RunID: run.ID, Stats: run.Stats, Standings: repository.Standings(run.Stats)}, nil
}

func runRemote(ctx context.Context, opts *Options, req aggregate.Request) (*Summary, error) {
	client := newHTTPClient(opts.Remote, opts.Timeout)
	if err := client.checkServiceHealth(ctx); err != nil {
		return nil, err
	}
	run, err := client.simulate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("remote simulation failed: %w", err)
	}
	ranked, err := client.standings(ctx, run.ID, maxRemoteStandings)
	if err != nil {
		return nil, fmt.Errorf("standings retrieval failed: %w", err)
	}
	return &Summary{RunID: run.ID, Stats: run.Stats, Standings: ranked}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// displayFinalStats logs the run and the top of the standings.
func displayFinalStats(ctx context.Context, s *Summary, topN int) {
	var trialsPerSecond float64
	if s.Took > 0 {
		trialsPerSecond = float64(s.Stats.Trials) / s.Took.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.String("run_id", s.RunID),
		logger.Int("trials", s.Stats.Trials),
		logger.Int64("seed", s.Stats.Seed),
		logger.String("tie_policy", string(s.Stats.TiePolicy)),
		logger.Int("first_place_ties", s.Stats.FirstPlaceTies),
		logger.Int("last_place_ties", s.Stats.LastPlaceTies),
		logger.Duration("took", s.Took),
		logger.Float64("trials_per_second", trialsPerSecond),
	)
	for i, e := range s.Standings {
		if i >= topN {
			break
		}
		p := s.Stats.Participants[e.Name]
		if p == nil {
			continue
		}
		logger.Get().Info(ctx, "standing",
			logger.Int("rank", e.Rank),
			logger.String("participant", e.Name),
			logger.Float64("first_pct", p.FirstPlacePct),
			logger.Float64("last_pct", p.LastPlacePct),
		)
	}
	if f := s.Stats.Focal; f != nil {
		logger.Get().Info(ctx, "focal participant",
			logger.String("participant", f.Participant),
			logger.Int("wins", f.Wins),
			logger.Int("examples", len(f.Examples)),
		)
		for _, ex := range f.Examples {
			logger.Get().Info(ctx, "focal example",
				logger.Int("trial", ex.Trial.Index),
				logger.String("champion", ex.Trial.Champion()),
				logger.Any("rounds", ex.Trial.Rounds),
				logger.Any("scores", ex.Scores),
			)
		}
	}
}
