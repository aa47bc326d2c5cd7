package scoring

import (
	"fmt"

	"github.com/okian/bracketpool/internal/domain/model"
)

// PickRecord is one parsed (participant, round, slot, team, points) row.
type PickRecord struct {
	Participant string
	Round       int
	Slot        int
	Team        string
	Points      int
}

// BaseRecord carries points a participant banked before the simulated rounds.
type BaseRecord struct {
	Participant string
	Points      int
}

// BuildParticipants groups records by participant, keeping first-appearance
// order. Base records may introduce participants that have no picks.
func BuildParticipants(picks []PickRecord, base []BaseRecord) ([]model.Participant, error) {
	var out []model.Participant
	index := make(map[string]int)

	lookup := func(name string) (*model.Participant, error) {
		if name == "" {
			return nil, fmt.Errorf("%w: record with empty participant", model.ErrConfiguration)
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, model.Participant{Name: name})
		}
		return &out[i], nil
	}

	for _, r := range picks {
		p, err := lookup(r.Participant)
		if err != nil {
			return nil, err
		}
		p.Picks = append(p.Picks, model.Pick{Round: r.Round, Slot: r.Slot, Team: r.Team, Points: r.Points})
	}

	banked := make(map[string]bool, len(base))
	for _, r := range base {
		if banked[r.Participant] {
			return nil, fmt.Errorf("%w: duplicate base points for %q", model.ErrConfiguration, r.Participant)
		}
		banked[r.Participant] = true
		p, err := lookup(r.Participant)
		if err != nil {
			return nil, err
		}
		p.BasePoints = r.Points
	}
	return out, nil
}
