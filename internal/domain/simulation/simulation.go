// Package simulation plays out one tournament from the first open round to
// the championship.
package simulation

import (
	"fmt"

	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/internal/domain/model"
)

// Resolver draws the winner of a single game.
type Resolver interface {
	Resolve(rng matchup.Source, teamA, teamB string) (string, error)
}

// Simulator runs trials over a fixed bracket. It keeps no state between
// trials, so one Simulator can serve many goroutines as long as each passes
// its own random source.
type Simulator struct {
	graph    *bracket.Graph
	resolver Resolver
}

// New creates a Simulator.
func New(graph *bracket.Graph, resolver Resolver) *Simulator {
	return &Simulator{graph: graph, resolver: resolver}
}

// Graph returns the bracket the simulator plays.
func (s *Simulator) Graph() *bracket.Graph { return s.graph }

// RunTrial resolves every open round in order. Pinned winners are used without
// a draw, banned teams lose without a draw, all other games consume exactly one
// draw from rng in (round, slot) order.
func (s *Simulator) RunTrial(rng matchup.Source, c *bracket.Constraints) (model.TrialResult, error) {
	rounds := make([][]string, s.graph.Rounds())
	start := s.graph.StartRound()
	for r := 1; r < start && r <= len(rounds); r++ {
		rounds[r-1] = s.graph.Known(r)
	}

	var previous []string
	if start > 1 {
		previous = rounds[start-2]
	}
	for r := start; r <= len(rounds); r++ {
		games, err := s.graph.MatchupsForRound(r, previous)
		if err != nil {
			return model.TrialResult{}, err
		}
		winners := make([]string, len(games))
		for i, m := range games {
			w, err := s.decide(rng, m, c)
			if err != nil {
				return model.TrialResult{}, err
			}
			winners[i] = w
		}
		rounds[r-1] = winners
		previous = winners
	}
	return model.TrialResult{Rounds: rounds}, nil
}

func (s *Simulator) decide(rng matchup.Source, m model.Matchup, c *bracket.Constraints) (string, error) {
	if m.TeamA == model.Unresolved || m.TeamB == model.Unresolved {
		return model.Unresolved, fmt.Errorf("%w: %s has an unresolved entrant", model.ErrConfiguration, m)
	}

	if pinned := c.Pinned(m.Round, m.Slot); pinned != model.Unresolved {
		if !m.Has(pinned) {
			return model.Unresolved, fmt.Errorf("%w: %q is forced to win %s but is not playing in it",
				model.ErrConfiguration, pinned, m)
		}
		if c.Banned(m.Round, m.Slot, pinned) {
			return model.Unresolved, fmt.Errorf("%w: %q is forced both to win and to lose %s",
				model.ErrConfiguration, pinned, m)
		}
		return pinned, nil
	}

	banA := c.Banned(m.Round, m.Slot, m.TeamA)
	banB := c.Banned(m.Round, m.Slot, m.TeamB)
	switch {
	case banA && banB:
		return model.Unresolved, fmt.Errorf("%w: both entrants are forced to lose %s", model.ErrConfiguration, m)
	case banA:
		return m.TeamB, nil
	case banB:
		return m.TeamA, nil
	}
	return s.resolver.Resolve(rng, m.TeamA, m.TeamB)
}
