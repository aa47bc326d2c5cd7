// Package model contains domain models passed between layers.
package model

import "fmt"

// Unresolved marks a matchup side whose entrant is not known yet.
const Unresolved = ""

// AnySlot on a Pick means the team only has to win some matchup of the round.
const AnySlot = -1

// Team is a tournament entrant and its strength rating.
type Team struct {
	Name   string
	Rating float64
}

// Matchup is one game of a round. TeamB is Unresolved only while earlier
// rounds are still open.
type Matchup struct {
	Round int
	Slot  int
	TeamA string
	TeamB string
}

// Has reports whether team is one of the two entrants.
func (m Matchup) Has(team string) bool {
	return team != Unresolved && (m.TeamA == team || m.TeamB == team)
}

// Opponent returns the other entrant, or Unresolved if team is not playing.
func (m Matchup) Opponent(team string) string {
	switch team {
	case m.TeamA:
		return m.TeamB
	case m.TeamB:
		return m.TeamA
	}
	return Unresolved
}

func (m Matchup) String() string {
	return fmt.Sprintf("round %d slot %d (%s vs %s)", m.Round, m.Slot, m.TeamA, m.TeamB)
}

// ForcedResult is the kind of constraint a ForcedOutcome applies.
type ForcedResult int

const (
	// ResultWin pins the team as the winner of its matchup in Round.
	ResultWin ForcedResult = iota + 1
	// ResultReach requires the team to be an entrant of Round, i.e. to win
	// every matchup before it.
	ResultReach
	// ResultLose requires the team not to win its matchup in Round.
	ResultLose
)

// ParseForcedResult maps "win", "reach" and "lose" to a ForcedResult.
func ParseForcedResult(s string) (ForcedResult, error) {
	switch s {
	case "win":
		return ResultWin, nil
	case "reach":
		return ResultReach, nil
	case "lose":
		return ResultLose, nil
	}
	return 0, fmt.Errorf("%w: unknown forced result %q", ErrConfiguration, s)
}

func (r ForcedResult) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultReach:
		return "reach"
	case ResultLose:
		return "lose"
	}
	return "unknown"
}

// MarshalText encodes the result by name.
func (r ForcedResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a result name.
func (r *ForcedResult) UnmarshalText(b []byte) error {
	v, err := ParseForcedResult(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ForcedOutcome constrains a team's result in a given round for every trial.
type ForcedOutcome struct {
	Team   string       `json:"team"`
	Round  int          `json:"round"`
	Result ForcedResult `json:"result"`
}

// Pick is a participant's declared winner for one matchup.
type Pick struct {
	Round  int
	Slot   int // AnySlot accepts a win in any matchup of Round
	Team   string
	Points int
}

// Participant is a bracket-pool member. Picks are fixed once loaded.
type Participant struct {
	Name string
	// BasePoints are points already banked before the first simulated round.
	BasePoints int
	Picks      []Pick
}
