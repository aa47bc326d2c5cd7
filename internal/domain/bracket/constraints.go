package bracket

import (
	"fmt"

	"github.com/okian/bracketpool/internal/domain/model"
)

// Constraints are forced outcomes compiled against a Graph: a pinned winner
// per (round, slot) plus teams barred from winning a slot. A nil *Constraints
// constrains nothing.
type Constraints struct {
	pins [][]string
	bans map[slotKey][]string
	// forced counts pins that came from forced outcomes rather than known results.
	forced int
}

type slotKey struct{ round, slot int }

// Pinned returns the forced winner of (round, slot), or Unresolved.
func (c *Constraints) Pinned(round, slot int) string {
	if c == nil || round < 1 || round > len(c.pins) {
		return model.Unresolved
	}
	pins := c.pins[round-1]
	if slot < 0 || slot >= len(pins) {
		return model.Unresolved
	}
	return pins[slot]
}

// Banned reports whether team is forced not to win (round, slot).
func (c *Constraints) Banned(round, slot int, team string) bool {
	if c == nil {
		return false
	}
	for _, t := range c.bans[slotKey{round, slot}] {
		if t == team {
			return true
		}
	}
	return false
}

// ForcedPins returns how many (round, slot) winners forced outcomes pinned.
func (c *Constraints) ForcedPins() int {
	if c == nil {
		return 0
	}
	return c.forced
}

// Compile checks forced outcomes for consistency with each other and with
// known results, and turns them into per-slot pins and bans.
//
// Reach(r) is normalized to Win(r-1); Reach(1) holds for every seeded team.
// A Win(r) pins the team on every slot of its path up to round r. Known
// results in simulated rounds are pinned the same way.
func (g *Graph) Compile(forced []model.ForcedOutcome) (*Constraints, error) {
	c := &Constraints{
		pins: make([][]string, g.rounds),
		bans: make(map[slotKey][]string),
	}
	for r := 1; r <= g.rounds; r++ {
		c.pins[r-1] = make([]string, len(g.field)>>r)
	}

	for r := g.start; r <= g.rounds; r++ {
		for _, w := range g.known[r-1] {
			if w == model.Unresolved {
				continue
			}
			if _, err := g.pin(c, w, r); err != nil {
				return nil, err
			}
		}
	}

	var losses []model.ForcedOutcome
	for _, f := range forced {
		if !g.Contains(f.Team) {
			return nil, fmt.Errorf("%w: forced outcome names unknown team %q", model.ErrConfiguration, f.Team)
		}
		switch f.Result {
		case model.ResultWin:
			if f.Round < 1 || f.Round > g.rounds {
				return nil, fmt.Errorf("%w: %q forced to win round %d outside 1..%d",
					model.ErrConfiguration, f.Team, f.Round, g.rounds)
			}
			n, err := g.pin(c, f.Team, f.Round)
			if err != nil {
				return nil, err
			}
			c.forced += n
		case model.ResultReach:
			if f.Round < 1 || f.Round > g.rounds+1 {
				return nil, fmt.Errorf("%w: %q forced to reach round %d outside 1..%d",
					model.ErrConfiguration, f.Team, f.Round, g.rounds+1)
			}
			if f.Round == 1 {
				continue
			}
			n, err := g.pin(c, f.Team, f.Round-1)
			if err != nil {
				return nil, err
			}
			c.forced += n
		case model.ResultLose:
			if f.Round < 1 || f.Round > g.rounds {
				return nil, fmt.Errorf("%w: %q forced to lose round %d outside 1..%d",
					model.ErrConfiguration, f.Team, f.Round, g.rounds)
			}
			losses = append(losses, f)
		default:
			return nil, fmt.Errorf("%w: forced outcome for %q has no result", model.ErrConfiguration, f.Team)
		}
	}

	// Losses are checked once every win is pinned so order does not matter.
	for _, f := range losses {
		slot, _ := g.SlotOf(f.Team, f.Round)
		if c.pins[f.Round-1][slot] == f.Team {
			return nil, fmt.Errorf("%w: %q is forced both to win and to lose round %d",
				model.ErrConfiguration, f.Team, f.Round)
		}
		if f.Round < g.start {
			// Known round: the loss either already happened or contradicts history.
			if g.known[f.Round-1][slot] == f.Team {
				return nil, fmt.Errorf("%w: %q is forced to lose round %d but is known to have won it",
					model.ErrConfiguration, f.Team, f.Round)
			}
			continue
		}
		key := slotKey{f.Round, slot}
		if !c.Banned(f.Round, slot, f.Team) {
			c.bans[key] = append(c.bans[key], f.Team)
		}
	}

	checked := make(map[slotKey]bool)
	for _, f := range losses {
		if f.Round < g.start {
			continue
		}
		slot, _ := g.SlotOf(f.Team, f.Round)
		key := slotKey{f.Round, slot}
		if checked[key] {
			continue
		}
		checked[key] = true
		if err := g.checkBans(c, key); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// checkBans rejects a game whose two entrants may both be barred from
// winning it. Entrants come from the two halves of the slot, so the game is
// unplayable when each half holds a banned team that can still get there.
func (g *Graph) checkBans(c *Constraints, key slotKey) error {
	teams := c.bans[key]
	if len(teams) < 2 || c.pins[key.round-1][key.slot] != model.Unresolved {
		return nil
	}
	var halves [2]string
	for _, t := range teams {
		if !g.canReach(c, t, key.round) {
			continue
		}
		h := (g.index[t] >> (key.round - 1)) & 1
		if halves[h] == model.Unresolved {
			halves[h] = t
		}
	}
	if halves[0] != model.Unresolved && halves[1] != model.Unresolved {
		return fmt.Errorf("%w: %q and %q are both forced to lose round %d slot %d but can meet there",
			model.ErrConfiguration, halves[0], halves[1], key.round, key.slot)
	}
	return nil
}

// canReach reports whether team can play in round under c: no earlier game
// on its path is decided for someone else or barred to it.
func (g *Graph) canReach(c *Constraints, team string, round int) bool {
	p := g.index[team]
	for r := 1; r < round; r++ {
		slot := p >> r
		if r < g.start {
			if g.known[r-1][slot] != team {
				return false
			}
			continue
		}
		if pinned := c.pins[r-1][slot]; pinned != model.Unresolved && pinned != team {
			return false
		}
		if c.Banned(r, slot, team) {
			return false
		}
	}
	return true
}

// pin marks team as the winner of every slot on its path through round and
// returns how many slots were newly pinned.
func (g *Graph) pin(c *Constraints, team string, round int) (int, error) {
	p := g.index[team]
	added := 0
	for r := 1; r <= round; r++ {
		slot := p >> r
		if r < g.start {
			if known := g.known[r-1][slot]; known != team {
				return 0, fmt.Errorf("%w: %q is forced through round %d but %q is known to have won it",
					model.ErrConfiguration, team, r, known)
			}
			continue
		}
		switch existing := c.pins[r-1][slot]; existing {
		case model.Unresolved:
			c.pins[r-1][slot] = team
			added++
		case team:
		default:
			return 0, fmt.Errorf("%w: round %d slot %d is forced to both %q and %q",
				model.ErrConfiguration, r, slot, existing, team)
		}
	}
	return added, nil
}
