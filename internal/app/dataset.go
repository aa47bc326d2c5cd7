package service

import (
	"context"
	"fmt"

	"github.com/okian/bracketpool/internal/adapters/csvio"
	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/rating"
	"github.com/okian/bracketpool/internal/domain/scoring"
)

// Dataset is everything a pool contest needs besides the run parameters.
type Dataset struct {
	Ratings      *rating.Store
	Graph        *bracket.Graph
	Participants []model.Participant
}

// Files names the CSV inputs of a Dataset. BasePoints is optional.
type Files struct {
	Teams      string
	Seeds      string
	Picks      string
	BasePoints string
}

// NewDataset validates parsed records and assembles a Dataset.
func NewDataset(
	teams []rating.Record,
	seeds []bracket.SeedRecord,
	picks []scoring.PickRecord,
	base []scoring.BaseRecord,
	opts ...bracket.Option,
) (*Dataset, error) {
	ratings, err := rating.NewStore(teams)
	if err != nil {
		return nil, err
	}
	graph, err := bracket.NewGraph(seeds, opts...)
	if err != nil {
		return nil, err
	}
	participants, err := scoring.BuildParticipants(picks, base)
	if err != nil {
		return nil, err
	}
	return &Dataset{Ratings: ratings, Graph: graph, Participants: participants}, nil
}

// LoadDataset reads the CSV files and builds a Dataset.
func LoadDataset(_ context.Context, files Files, opts ...bracket.Option) (*Dataset, error) {
	teams, err := csvio.ReadFile(files.Teams, csvio.ReadTeams)
	if err != nil {
		return nil, err
	}
	seeds, err := csvio.ReadFile(files.Seeds, csvio.ReadSeeds)
	if err != nil {
		return nil, err
	}
	picks, err := csvio.ReadFile(files.Picks, csvio.ReadPicks)
	if err != nil {
		return nil, err
	}
	var base []scoring.BaseRecord
	if files.BasePoints != "" {
		if base, err = csvio.ReadFile(files.BasePoints, csvio.ReadBasePoints); err != nil {
			return nil, err
		}
	}
	return NewDataset(teams, seeds, picks, base, opts...)
}

// MissingRatings lists field teams without a rating, in bracket order.
func (d *Dataset) MissingRatings() []string {
	var out []string
	for _, team := range d.Graph.Field() {
		if team != model.Unresolved && !d.Ratings.Has(team) {
			out = append(out, team)
		}
	}
	return out
}

// ParticipantNames returns participant names in input order.
func (d *Dataset) ParticipantNames() []string {
	out := make([]string, len(d.Participants))
	for i, p := range d.Participants {
		out[i] = p.Name
	}
	return out
}

func (d *Dataset) validate(needRatings bool) error {
	if len(d.Participants) == 0 {
		return fmt.Errorf("%w: pool has no participants", model.ErrConfiguration)
	}
	if !needRatings {
		return nil
	}
	if missing := d.MissingRatings(); len(missing) > 0 {
		return fmt.Errorf("%w: no rating for %d teams, first %q", model.ErrDataIntegrity, len(missing), missing[0])
	}
	return nil
}
