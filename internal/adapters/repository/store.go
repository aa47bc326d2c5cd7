// Package repository keeps finished simulation runs so they can be listed and
// queried after the request that produced them returns.
package repository

import (
	"context"
	"time"

	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/standings"
)

// Run is one finished batch of trials.
type Run struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Duration  time.Duration         `json:"duration_ns"`
	Request   aggregate.Request     `json:"request"`
	Stats     *model.AggregateStats `json:"stats"`
}

// Summary is the listing view of a Run.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Trials    int       `json:"trials"`
	Seed      int64     `json:"seed"`
	Focal     string    `json:"focal,omitempty"`
	// Leader is the participant with the highest first-place share.
	Leader    string  `json:"leader,omitempty"`
	LeaderPct float64 `json:"leader_pct"`
}

// Store provides read/write access to finished runs.
type Store interface {
	// Save stores a run. Returns ErrDuplicateID if the id is taken.
	Save(ctx context.Context, run Run) error

	// Get returns a run by id or ErrNotFound.
	Get(ctx context.Context, id string) (Run, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Standings ranks a run's participants by first-place share.
	Standings(ctx context.Context, id string, limit int) ([]standings.Entry, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}

// Standings converts stats into ranked entries: first-place share DESC,
// then name ASC, with tied shares sharing a rank.
func Standings(stats *model.AggregateStats) []standings.Entry {
	if stats == nil {
		return nil
	}
	entries := make([]standings.Entry, 0, len(stats.Participants))
	for name, p := range stats.Participants {
		entries = append(entries, standings.Entry{Name: name, Score: p.FirstPlacePct})
	}
	standings.Rank(entries)
	return entries
}

func summarize(r *Run) Summary {
	s := Summary{ID: r.ID, CreatedAt: r.CreatedAt, Focal: r.Request.Focal}
	if r.Stats == nil {
		return s
	}
	s.Trials = r.Stats.Trials
	s.Seed = r.Stats.Seed
	if ranked := Standings(r.Stats); len(ranked) > 0 {
		s.Leader = ranked[0].Name
		s.LeaderPct = ranked[0].Score
	}
	return s
}
