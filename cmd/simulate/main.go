package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/bracketpool/internal/config"
	"github.com/okian/bracketpool/internal/simcli"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	// Defaults -> optional file -> env; flags applied on top below.
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 2
	}

	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	opts := simcli.BindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.Help {
		simcli.ShowHelp(os.Stdout)
		return 0
	}

	closer, err := simcli.SetupLogging(opts.LogFile, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		return 2
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := simcli.Run(ctx, cfg, opts); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
