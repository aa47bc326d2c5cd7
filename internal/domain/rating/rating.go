// Package rating holds team strength ratings keyed by team name.
package rating

import (
	"fmt"
	"sort"

	"github.com/okian/bracketpool/internal/domain/model"
)

// Record is one parsed (team, rating) input row.
type Record struct {
	Team   string
	Rating float64
}

// Store is a read-only rating lookup. It is safe for concurrent use once built.
type Store struct {
	ratings map[string]float64
}

// NewStore builds a Store from records. Empty names and duplicate teams are
// rejected.
func NewStore(records []Record) (*Store, error) {
	s := &Store{ratings: make(map[string]float64, len(records))}
	for _, r := range records {
		if r.Team == "" {
			return nil, fmt.Errorf("%w: rating record with empty team", model.ErrConfiguration)
		}
		if _, dup := s.ratings[r.Team]; dup {
			return nil, fmt.Errorf("%w: duplicate rating for team %q", model.ErrConfiguration, r.Team)
		}
		s.ratings[r.Team] = r.Rating
	}
	return s, nil
}

// Rating returns the team's rating or ErrDataIntegrity if it is unknown.
func (s *Store) Rating(team string) (float64, error) {
	r, ok := s.ratings[team]
	if !ok {
		return 0, fmt.Errorf("%w: no rating for team %q", model.ErrDataIntegrity, team)
	}
	return r, nil
}

// Has reports whether the team has a rating.
func (s *Store) Has(team string) bool {
	_, ok := s.ratings[team]
	return ok
}

// Len returns the number of rated teams.
func (s *Store) Len() int { return len(s.ratings) }

// Teams returns all rated teams sorted by name.
func (s *Store) Teams() []model.Team {
	out := make([]model.Team, 0, len(s.ratings))
	for name, r := range s.ratings {
		out = append(out, model.Team{Name: name, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
