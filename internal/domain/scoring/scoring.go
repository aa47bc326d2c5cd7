// Package scoring computes bracket-pool points for a participant against one
// simulated tournament.
package scoring

import (
	"fmt"

	"github.com/okian/bracketpool/internal/domain/model"
)

// Bracket is the part of the bracket graph pick validation needs.
type Bracket interface {
	Rounds() int
	MatchupsInRound(round int) int
	SlotOf(team string, round int) (int, bool)
}

// Option applies a configuration option to the PickScorer.
type Option func(*PickScorer)

// WithBracket enables pick validation against the given bracket.
func WithBracket(b Bracket) Option {
	return func(s *PickScorer) {
		if b != nil {
			s.bracket = b
		}
	}
}

// PickScorer scores participants. Score is a pure function of its inputs.
type PickScorer struct {
	bracket Bracket
}

// NewPickScorer creates a new scorer with configuration options.
func NewPickScorer(opts ...Option) *PickScorer {
	s := &PickScorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns BasePoints plus the points of every correct pick.
// Wrong picks add nothing.
func (s *PickScorer) Score(trial model.TrialResult, p model.Participant) int {
	total := p.BasePoints
	for _, pick := range p.Picks {
		if correct(trial, pick) {
			total += pick.Points
		}
	}
	return total
}

// ScoreAll scores every participant into out, growing it if needed.
func (s *PickScorer) ScoreAll(trial model.TrialResult, participants []model.Participant, out []int) []int {
	if cap(out) < len(participants) {
		out = make([]int, len(participants))
	}
	out = out[:len(participants)]
	for i, p := range participants {
		out[i] = s.Score(trial, p)
	}
	return out
}

func correct(trial model.TrialResult, pick model.Pick) bool {
	if pick.Slot == model.AnySlot {
		return trial.Won(pick.Team, pick.Round)
	}
	return trial.Winner(pick.Round, pick.Slot) == pick.Team
}

// Validate rejects picks the bracket cannot satisfy: unknown rounds or slots,
// teams outside the field, slots a team can never reach, negative points and
// duplicate picks for the same slot. Without a bracket only points are checked.
func (s *PickScorer) Validate(p model.Participant) error {
	seen := make(map[[2]int]string)
	for _, pick := range p.Picks {
		if pick.Points < 0 {
			return fmt.Errorf("%w: %s picks %q in round %d for negative points",
				model.ErrConfiguration, p.Name, pick.Team, pick.Round)
		}
		if s.bracket == nil {
			continue
		}
		if pick.Round < 1 || pick.Round > s.bracket.Rounds() {
			return fmt.Errorf("%w: %s picks round %d outside 1..%d",
				model.ErrConfiguration, p.Name, pick.Round, s.bracket.Rounds())
		}
		slot, ok := s.bracket.SlotOf(pick.Team, pick.Round)
		if !ok {
			return fmt.Errorf("%w: %s picks unknown team %q", model.ErrConfiguration, p.Name, pick.Team)
		}
		if pick.Slot == model.AnySlot {
			continue
		}
		if pick.Slot < 0 || pick.Slot >= s.bracket.MatchupsInRound(pick.Round) {
			return fmt.Errorf("%w: %s picks round %d slot %d which does not exist",
				model.ErrConfiguration, p.Name, pick.Round, pick.Slot)
		}
		if slot != pick.Slot {
			return fmt.Errorf("%w: %s picks %q for round %d slot %d but it can only play slot %d",
				model.ErrConfiguration, p.Name, pick.Team, pick.Round, pick.Slot, slot)
		}
		key := [2]int{pick.Round, pick.Slot}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s picks both %q and %q for round %d slot %d",
				model.ErrConfiguration, p.Name, prev, pick.Team, pick.Round, pick.Slot)
		}
		seen[key] = pick.Team
	}
	return nil
}
