// Package simcli implements the bracketpool command line tool: it loads a
// contest, runs one batch of trials in-process or on a server, logs a
// summary and writes the result tables.
package simcli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/bracketpool/pkg/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging points the global logger at stdout and, when logFile is set,
// appends to that file too. The returned closer releases the file.
func SetupLogging(logFile, format, level string) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(out), logger.WithFormat(format)); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = closer.Close()
		return nil, err
	}
	return closer, nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `bracketpool simulate
====================

Monte Carlo estimate of each bracket-pool participant's chance to finish
first and last.

Usage:
  simulate [options]

Inputs (CSV, header row required):
  -teams   team,rating
  -seeds   round,slot,team          round 0 is the field in bracket order
  -picks   participant,round,slot,team,points   slot "*" matches any game
  -base    participant,points       optional
  -forced  team,round,result        result is win, reach or lose

Common options:
  -trials int         simulated tournaments (default 10000)
  -seed int           fix the random streams for a reproducible run
  -workers int        simulation goroutines (default CPU cores)
  -focal name         explain what has to happen for this participant to win
  -ties policy        credit_all or tie_bucket
  -probability mode   scaled (ratings) or even (coin flips)
  -output file        write the results table
  -focal-output file  write the focal round frequency table
  -url url            submit to a running bracketpool server
  -help               show this message

Every option can also be set in the YAML file named by BRACKETPOOL_CONFIG
or through BRACKETPOOL_* environment variables; flags win.

Examples:
  simulate -teams teams.csv -seeds seeds.csv -picks picks.csv -trials 100000
  simulate -focal Alice -focal-output alice.csv -seed 42
  simulate -url http://localhost:9080 -trials 50000
`)
}
