package model

// TrialResult holds every matchup winner of one simulated tournament.
// Rounds[r-1][slot] is the winner of (round r, slot). Known rounds are
// included so picks on them can be scored too.
type TrialResult struct {
	Index  int        `json:"index"`
	Rounds [][]string `json:"rounds"`
}

// Winner returns the winner of (round, slot), or Unresolved when out of range.
func (t TrialResult) Winner(round, slot int) string {
	if round < 1 || round > len(t.Rounds) {
		return Unresolved
	}
	winners := t.Rounds[round-1]
	if slot < 0 || slot >= len(winners) {
		return Unresolved
	}
	return winners[slot]
}

// Won reports whether team won a matchup in round.
func (t TrialResult) Won(team string, round int) bool {
	if round < 1 || round > len(t.Rounds) {
		return false
	}
	for _, w := range t.Rounds[round-1] {
		if w == team {
			return true
		}
	}
	return false
}

// Champion returns the winner of the final round.
func (t TrialResult) Champion() string {
	if len(t.Rounds) == 0 {
		return Unresolved
	}
	return t.Winner(len(t.Rounds), 0)
}

// Clone returns a deep copy so retained examples do not alias worker buffers.
func (t TrialResult) Clone() TrialResult {
	rounds := make([][]string, len(t.Rounds))
	for i, r := range t.Rounds {
		rounds[i] = append([]string(nil), r...)
	}
	return TrialResult{Index: t.Index, Rounds: rounds}
}
