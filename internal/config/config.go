// Package config defines process configuration and how it is loaded.
//
// Conventions:
//   - New builds a Config with defaults; Load layers files and env on top.
//   - Errors returned from this package wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/internal/domain/model"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Workers sets how many goroutines simulate trials.
	Workers int `koanf:"workers"`
	// BatchSize is the number of trials a worker takes at once.
	BatchSize int `koanf:"batch_size"`
	// QueueCapacity bounds batches waiting for a worker.
	QueueCapacity int `koanf:"queue_capacity"`

	// Trials is the default number of simulated tournaments per run.
	Trials int `koanf:"trials"`
	// MaxTrials caps trials accepted by the HTTP API.
	MaxTrials int `koanf:"max_trials"`
	// Seed fixes the random streams; nil draws a seed per run.
	Seed *int64 `koanf:"seed"`
	// ExampleCap bounds retained focal examples.
	ExampleCap int `koanf:"example_cap"`
	// Focal names the participant to explain, if any.
	Focal string `koanf:"focal"`
	// TiePolicy is credit_all or tie_bucket.
	TiePolicy string `koanf:"tie_policy"`

	// Probability is scaled (rating based) or even (coin flip).
	Probability string `koanf:"probability"`
	// RatingScale divides the rating difference in the win probability formula.
	RatingScale float64 `koanf:"rating_scale"`
	// StartRound forces the first simulated round; zero derives it.
	StartRound int `koanf:"start_round"`

	// Input and output files.
	TeamsFile      string `koanf:"teams_file"`
	SeedsFile      string `koanf:"seeds_file"`
	PicksFile      string `koanf:"picks_file"`
	BasePointsFile string `koanf:"base_points_file"`
	ForcedFile     string `koanf:"forced_file"`
	OutputFile     string `koanf:"output_file"`

	// MaxStoredRuns bounds the in-memory run store.
	MaxStoredRuns int `koanf:"max_stored_runs"`
	// IdempotencyKeys bounds remembered Idempotency-Key values; zero keeps all.
	IdempotencyKeys int `koanf:"idempotency_keys"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		ShutdownTimeout: 10 * time.Second,
		Workers:         runtime.NumCPU(),
		BatchSize:       256,
		QueueCapacity:   64,
		Trials:          10_000,
		MaxTrials:       1_000_000,
		ExampleCap:      5,
		TiePolicy:       string(model.TieCreditAll),
		Probability:     string(matchup.ModeScaled),
		RatingScale:     matchup.DefaultScale,
		TeamsFile:       "teams.csv",
		SeedsFile:       "seeds.csv",
		PicksFile:       "picks.csv",
		MaxStoredRuns:   100,
		IdempotencyKeys: 10_000,
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.QueueCapacity < 1:
		return fmt.Errorf("%w: queue_capacity must be positive, got %d", ErrInvalidConfig, c.QueueCapacity)
	case c.Trials < 0:
		return fmt.Errorf("%w: trials must not be negative, got %d", ErrInvalidConfig, c.Trials)
	case c.MaxTrials < 1:
		return fmt.Errorf("%w: max_trials must be positive, got %d", ErrInvalidConfig, c.MaxTrials)
	case c.RatingScale <= 0:
		return fmt.Errorf("%w: rating_scale must be positive, got %g", ErrInvalidConfig, c.RatingScale)
	case c.StartRound < 0:
		return fmt.Errorf("%w: start_round must not be negative, got %d", ErrInvalidConfig, c.StartRound)
	case c.MaxStoredRuns < 1:
		return fmt.Errorf("%w: max_stored_runs must be positive, got %d", ErrInvalidConfig, c.MaxStoredRuns)
	case c.IdempotencyKeys < 0:
		return fmt.Errorf("%w: idempotency_keys must not be negative, got %d", ErrInvalidConfig, c.IdempotencyKeys)
	}
	if _, err := model.ParseTiePolicy(c.TiePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := matchup.ParseMode(c.Probability); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
