package model

import "fmt"

// TiePolicy decides who is credited when several participants share the
// best (or worst) score of a trial.
type TiePolicy string

const (
	// TieCreditAll credits every tied participant, so first-place counts can
	// sum to more than the number of trials.
	TieCreditAll TiePolicy = "credit_all"
	// TieBucket credits nobody on a tie; the trial only shows up in the
	// FirstPlaceTies/LastPlaceTies counters.
	TieBucket TiePolicy = "tie_bucket"
)

// ParseTiePolicy validates a policy name. Empty selects TieCreditAll.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch TiePolicy(s) {
	case "", TieCreditAll:
		return TieCreditAll, nil
	case TieBucket:
		return TieBucket, nil
	}
	return "", fmt.Errorf("%w: unknown tie policy %q", ErrConfiguration, s)
}

// ParticipantStats is one participant's finishing record across all trials.
type ParticipantStats struct {
	Name          string  `json:"name"`
	FirstPlace    int     `json:"first_place"`
	LastPlace     int     `json:"last_place"`
	FirstPlacePct float64 `json:"first_place_pct"`
	LastPlacePct  float64 `json:"last_place_pct"`
}

// Example is a retained trial in which the focal participant finished first.
type Example struct {
	Trial  TrialResult    `json:"trial"`
	Scores map[string]int `json:"scores"`
}

// FocalDiagnostics explains what has to happen for one participant to win.
type FocalDiagnostics struct {
	Participant string `json:"participant"`
	// Wins counts trials in which the participant was credited first place.
	Wins     int       `json:"wins"`
	Examples []Example `json:"examples"`
	// RoundCounts[team][r-1] counts focal wins in which team won its round-r matchup.
	RoundCounts map[string][]int `json:"round_counts"`
	// RoundFrequency is RoundCounts divided by Wins; zero when Wins is zero.
	RoundFrequency map[string][]float64 `json:"round_frequency"`
}

// AggregateStats is the outcome of a batch of trials. Percentages are only
// valid after the aggregator finalizes it.
type AggregateStats struct {
	Trials         int                          `json:"trials"`
	Seed           int64                        `json:"seed"`
	TiePolicy      TiePolicy                    `json:"tie_policy"`
	Participants   map[string]*ParticipantStats `json:"participants"`
	FirstPlaceTies int                          `json:"first_place_ties"`
	LastPlaceTies  int                          `json:"last_place_ties"`
	Focal          *FocalDiagnostics            `json:"focal,omitempty"`
}

// FirstPlaceCounts returns participant -> first-place count.
func (s *AggregateStats) FirstPlaceCounts() map[string]int {
	out := make(map[string]int, len(s.Participants))
	for name, p := range s.Participants {
		out[name] = p.FirstPlace
	}
	return out
}

// LastPlaceCounts returns participant -> last-place count.
func (s *AggregateStats) LastPlaceCounts() map[string]int {
	out := make(map[string]int, len(s.Participants))
	for name, p := range s.Participants {
		out[name] = p.LastPlace
	}
	return out
}

// FirstPlacePcts returns participant -> first-place fraction of trials.
func (s *AggregateStats) FirstPlacePcts() map[string]float64 {
	out := make(map[string]float64, len(s.Participants))
	for name, p := range s.Participants {
		out[name] = p.FirstPlacePct
	}
	return out
}

// LastPlacePcts returns participant -> last-place fraction of trials.
func (s *AggregateStats) LastPlacePcts() map[string]float64 {
	out := make(map[string]float64, len(s.Participants))
	for name, p := range s.Participants {
		out[name] = p.LastPlacePct
	}
	return out
}
