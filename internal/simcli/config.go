package simcli

import (
	"flag"
	"strconv"
	"time"

	"github.com/okian/bracketpool/internal/config"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/standings"
)

// Options holds settings that only the command line tool has.
type Options struct {
	Remote     string        // base URL of a running server; empty simulates in-process
	Timeout    time.Duration // HTTP request timeout in remote mode
	FocalFile  string        // where to write the focal frequency table
	LogFile    string        // also write logs here
	TopN       int           // standings rows to log
	Help       bool
	configured *config.Config
}

// Summary is what one run produced.
type Summary struct {
	RunID     string
	Stats     *model.AggregateStats
	Standings []standings.Entry
	Took      time.Duration
}

// BindFlags registers flags on fs. Flag defaults come from cfg, and parsing
// writes straight into cfg, so flags override file and env settings.
func BindFlags(fs *flag.FlagSet, cfg *config.Config) *Options {
	opts := &Options{Timeout: defaultTimeout, TopN: defaultTopN, configured: cfg}

	fs.IntVar(&cfg.Trials, "trials", cfg.Trials, "Number of simulated tournaments")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of simulation goroutines")
	fs.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Trials per worker batch")
	fs.StringVar(&cfg.Focal, "focal", cfg.Focal, "Participant to explain")
	fs.IntVar(&cfg.ExampleCap, "examples", cfg.ExampleCap, "Focal examples to keep (negative keeps none)")
	fs.StringVar(&cfg.TiePolicy, "ties", cfg.TiePolicy, "Tie policy: credit_all or tie_bucket")
	fs.StringVar(&cfg.Probability, "probability", cfg.Probability, "Win probability: scaled or even")
	fs.Float64Var(&cfg.RatingScale, "scale", cfg.RatingScale, "Rating difference divisor")
	fs.IntVar(&cfg.StartRound, "start-round", cfg.StartRound, "First simulated round (0 derives it)")
	fs.StringVar(&cfg.TeamsFile, "teams", cfg.TeamsFile, "Teams CSV (team,rating)")
	fs.StringVar(&cfg.SeedsFile, "seeds", cfg.SeedsFile, "Seeds CSV (round,slot,team)")
	fs.StringVar(&cfg.PicksFile, "picks", cfg.PicksFile, "Picks CSV (participant,round,slot,team,points)")
	fs.StringVar(&cfg.BasePointsFile, "base", cfg.BasePointsFile, "Base points CSV (participant,points)")
	fs.StringVar(&cfg.ForcedFile, "forced", cfg.ForcedFile, "Forced outcomes CSV (team,round,result)")
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Results CSV; empty skips writing")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	fs.Func("seed", "Random seed; unset draws one", func(s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		cfg.Seed = &v
		return nil
	})

	fs.StringVar(&opts.Remote, "url", "", "Submit to a running server instead of simulating locally")
	fs.DurationVar(&opts.Timeout, "timeout", defaultTimeout, "HTTP request timeout in remote mode")
	fs.StringVar(&opts.FocalFile, "focal-output", "", "Focal frequency CSV; needs -focal")
	fs.StringVar(&opts.LogFile, "log", "", "Also append logs to this file")
	fs.IntVar(&opts.TopN, "top", defaultTopN, "Standings rows to log")
	fs.BoolVar(&opts.Help, "help", false, "Show help")
	return opts
}

// Config returns the configuration the flags were bound to.
func (o *Options) Config() *config.Config { return o.configured }
