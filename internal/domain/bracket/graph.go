// Package bracket encodes the static single-elimination topology: the seeded
// field, results already known, and which prior winners meet in every round.
//
// Slots are numbered so that a team in field slot p plays round r in matchup
// p>>r. Round r matchup i pairs the winners of round r-1 slots 2i and 2i+1,
// with round 0 being the seeded field itself.
package bracket

import (
	"fmt"
	"math/bits"

	"github.com/okian/bracketpool/internal/domain/model"
)

// SeedRecord is one parsed seeding row. Round 0 rows list the field in
// bracket order; rows with Round >= 1 are known winners of (Round, Slot).
// An empty Team is a placeholder and is ignored.
type SeedRecord struct {
	Round int
	Slot  int
	Team  string
}

// Option applies a configuration option to the Graph.
type Option func(*Graph)

// WithStartRound sets the first simulated round. Every round before it must be
// fully covered by known results. Zero keeps the derived start round.
func WithStartRound(round int) Option {
	return func(g *Graph) {
		if round > 0 {
			g.start = round
		}
	}
}

// Graph is the immutable bracket structure. Safe for concurrent reads.
type Graph struct {
	field  []string
	index  map[string]int
	rounds int
	// known[r-1][slot] is the known winner of (r, slot) or Unresolved.
	known [][]string
	start int
}

// NewGraph validates seed records and builds the bracket.
func NewGraph(seeds []SeedRecord, opts ...Option) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}

	if err := g.loadField(seeds); err != nil {
		return nil, err
	}
	if err := g.loadKnown(seeds); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(g)
	}
	if g.start == 0 {
		g.start = g.firstOpenRound()
	}
	if g.start < 1 || g.start > g.rounds+1 {
		return nil, fmt.Errorf("%w: start round %d outside 1..%d", model.ErrConfiguration, g.start, g.rounds+1)
	}
	for r := 1; r < g.start; r++ {
		for slot, w := range g.known[r-1] {
			if w == model.Unresolved {
				return nil, fmt.Errorf("%w: round %d slot %d has no known result but precedes start round %d",
					model.ErrConfiguration, r, slot, g.start)
			}
		}
	}
	return g, nil
}

func (g *Graph) loadField(seeds []SeedRecord) error {
	size := 0
	for _, s := range seeds {
		if s.Round == 0 && s.Slot+1 > size {
			size = s.Slot + 1
		}
	}
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return fmt.Errorf("%w: field size %d is not a power of two >= 2", model.ErrConfiguration, size)
	}

	g.field = make([]string, size)
	for _, s := range seeds {
		if s.Round != 0 {
			continue
		}
		switch {
		case s.Slot < 0:
			return fmt.Errorf("%w: negative field slot %d", model.ErrConfiguration, s.Slot)
		case s.Team == model.Unresolved:
			return fmt.Errorf("%w: field slot %d has no team", model.ErrConfiguration, s.Slot)
		case g.field[s.Slot] != model.Unresolved:
			return fmt.Errorf("%w: field slot %d seeded twice", model.ErrConfiguration, s.Slot)
		}
		if prev, dup := g.index[s.Team]; dup {
			return fmt.Errorf("%w: team %q seeded in slots %d and %d", model.ErrConfiguration, s.Team, prev, s.Slot)
		}
		g.field[s.Slot] = s.Team
		g.index[s.Team] = s.Slot
	}
	for slot, team := range g.field {
		if team == model.Unresolved {
			return fmt.Errorf("%w: field slot %d is empty", model.ErrConfiguration, slot)
		}
	}

	g.rounds = bits.TrailingZeros(uint(size))
	g.known = make([][]string, g.rounds)
	for r := 1; r <= g.rounds; r++ {
		g.known[r-1] = make([]string, size>>r)
	}
	return nil
}

func (g *Graph) loadKnown(seeds []SeedRecord) error {
	// Later rounds depend on earlier ones, so validate in round order.
	byRound := make([][]SeedRecord, g.rounds+1)
	for _, s := range seeds {
		if s.Round == 0 || s.Team == model.Unresolved {
			continue
		}
		if s.Round < 0 || s.Round > g.rounds {
			return fmt.Errorf("%w: known result for round %d outside 1..%d", model.ErrConfiguration, s.Round, g.rounds)
		}
		byRound[s.Round] = append(byRound[s.Round], s)
	}

	for r := 1; r <= g.rounds; r++ {
		for _, s := range byRound[r] {
			if s.Slot < 0 || s.Slot >= len(g.known[r-1]) {
				return fmt.Errorf("%w: round %d has no slot %d", model.ErrConfiguration, r, s.Slot)
			}
			if g.known[r-1][s.Slot] != model.Unresolved {
				return fmt.Errorf("%w: round %d slot %d has two known results", model.ErrConfiguration, r, s.Slot)
			}
			slot, ok := g.SlotOf(s.Team, r)
			if !ok {
				return fmt.Errorf("%w: known winner %q is not in the field", model.ErrConfiguration, s.Team)
			}
			if slot != s.Slot {
				return fmt.Errorf("%w: %q cannot play round %d slot %d", model.ErrConfiguration, s.Team, r, s.Slot)
			}
			if r > 1 {
				prev := g.known[r-2][g.index[s.Team]>>(r-1)]
				if prev != model.Unresolved && prev != s.Team {
					return fmt.Errorf("%w: %q is known to win round %d but lost in round %d",
						model.ErrConfiguration, s.Team, r, r-1)
				}
			}
			g.known[r-1][s.Slot] = s.Team
		}
	}
	return nil
}

func (g *Graph) firstOpenRound() int {
	for r := 1; r <= g.rounds; r++ {
		for _, w := range g.known[r-1] {
			if w == model.Unresolved {
				return r
			}
		}
	}
	return g.rounds + 1
}

// Rounds returns the number of rounds; the last one is the championship.
func (g *Graph) Rounds() int { return g.rounds }

// Size returns the number of seeded teams.
func (g *Graph) Size() int { return len(g.field) }

// StartRound returns the first simulated round. It is Rounds()+1 when every
// result is already known.
func (g *Graph) StartRound() int { return g.start }

// MatchupsInRound returns how many games round has, or zero if out of range.
func (g *Graph) MatchupsInRound(round int) int {
	if round < 1 || round > g.rounds {
		return 0
	}
	return len(g.field) >> round
}

// Contains reports whether team is part of the seeded field.
func (g *Graph) Contains(team string) bool {
	_, ok := g.index[team]
	return ok
}

// Field returns the seeded teams in bracket order.
func (g *Graph) Field() []string {
	return append([]string(nil), g.field...)
}

// SlotOf returns the matchup slot team occupies in round if it gets there.
func (g *Graph) SlotOf(team string, round int) (int, bool) {
	p, ok := g.index[team]
	if !ok || round < 0 || round > g.rounds {
		return 0, false
	}
	return p >> round, true
}

// Known returns a copy of the known winners of round; unknown slots are Unresolved.
func (g *Graph) Known(round int) []string {
	if round < 1 || round > g.rounds {
		return nil
	}
	return append([]string(nil), g.known[round-1]...)
}

// MatchupsForRound pairs adjacent winners of the previous round. For round 1
// the field is used and previous is ignored. Unresolved winners produce
// matchups with placeholder entrants.
func (g *Graph) MatchupsForRound(round int, previous []string) ([]model.Matchup, error) {
	if round < 1 || round > g.rounds {
		return nil, fmt.Errorf("%w: round %d outside 1..%d", model.ErrConfiguration, round, g.rounds)
	}
	entrants := g.field
	if round > 1 {
		if want := len(g.field) >> (round - 1); len(previous) != want {
			return nil, fmt.Errorf("%w: round %d needs %d previous winners, got %d",
				model.ErrConfiguration, round, want, len(previous))
		}
		entrants = previous
	}

	out := make([]model.Matchup, len(entrants)/2)
	for i := range out {
		out[i] = model.Matchup{
			Round: round,
			Slot:  i,
			TeamA: entrants[2*i],
			TeamB: entrants[2*i+1],
		}
	}
	return out, nil
}
