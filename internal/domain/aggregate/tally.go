package aggregate

import (
	"sort"

	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/standings"
)

// Tally is a private counter set. Each worker owns one; tallies of the same
// plan are combined with Merge and turned into stats with Finalize.
type Tally struct {
	plan  *Plan
	names []string

	trials    int
	first     []int
	last      []int
	firstTies int
	lastTies  int

	focalWins   int
	examples    []model.Example
	roundCounts map[string][]int
	rounds      int

	scores []int
}

// NewTally creates an empty tally for plan.
func (a *Aggregator) NewTally(plan *Plan) *Tally {
	names := make([]string, len(a.participants))
	for i, p := range a.participants {
		names[i] = p.Name
	}
	t := &Tally{
		plan:  plan,
		names: names,
		first: make([]int, len(names)),
		last:  make([]int, len(names)),
	}
	if plan.focal >= 0 {
		graph := a.sim.Graph()
		t.rounds = graph.Rounds()
		t.roundCounts = make(map[string][]int, graph.Size())
		for _, team := range graph.Field() {
			t.roundCounts[team] = make([]int, t.rounds)
		}
	}
	return t
}

// Trials returns how many trials the tally has seen.
func (t *Tally) Trials() int { return t.trials }

func (t *Tally) record(result model.TrialResult) {
	t.trials++
	top, bottom := standings.Extremes(t.scores)

	if len(top) > 1 {
		t.firstTies++
	}
	if len(bottom) > 1 {
		t.lastTies++
	}

	focalFirst := false
	if t.credited(top) {
		for _, i := range top {
			t.first[i]++
			if i == t.plan.focal {
				focalFirst = true
			}
		}
	}
	if t.credited(bottom) {
		for _, i := range bottom {
			t.last[i]++
		}
	}

	if focalFirst {
		t.recordFocal(result)
	}
}

// credited applies the tie policy to a first or last place group.
func (t *Tally) credited(group []int) bool {
	if len(group) == 0 {
		return false
	}
	return len(group) == 1 || t.plan.TiePolicy == model.TieCreditAll
}

func (t *Tally) recordFocal(result model.TrialResult) {
	t.focalWins++
	for r, winners := range result.Rounds {
		for _, team := range winners {
			if counts, ok := t.roundCounts[team]; ok {
				counts[r]++
			}
		}
	}
	if len(t.examples) < t.plan.ExampleCap {
		scores := make(map[string]int, len(t.names))
		for i, name := range t.names {
			scores[name] = t.scores[i]
		}
		t.examples = append(t.examples, model.Example{Trial: result.Clone(), Scores: scores})
	}
}

// Merge adds o into t. Both must come from the same plan. Examples keep the
// lowest trial indexes so the merged set does not depend on how trials were
// split across workers.
func (t *Tally) Merge(o *Tally) {
	t.trials += o.trials
	for i := range t.first {
		t.first[i] += o.first[i]
		t.last[i] += o.last[i]
	}
	t.firstTies += o.firstTies
	t.lastTies += o.lastTies

	t.focalWins += o.focalWins
	for team, counts := range o.roundCounts {
		mine := t.roundCounts[team]
		for r := range counts {
			mine[r] += counts[r]
		}
	}
	t.examples = append(t.examples, o.examples...)
	sort.Slice(t.examples, func(i, j int) bool {
		return t.examples[i].Trial.Index < t.examples[j].Trial.Index
	})
	if len(t.examples) > t.plan.ExampleCap {
		t.examples = t.examples[:t.plan.ExampleCap]
	}
}

// Finalize computes percentages. Percentages are per participant and need not
// sum to one: ties under TieCreditAll credit several participants.
func (t *Tally) Finalize() *model.AggregateStats {
	stats := &model.AggregateStats{
		Trials:         t.trials,
		Seed:           t.plan.Seed,
		TiePolicy:      t.plan.TiePolicy,
		Participants:   make(map[string]*model.ParticipantStats, len(t.names)),
		FirstPlaceTies: t.firstTies,
		LastPlaceTies:  t.lastTies,
	}
	for i, name := range t.names {
		stats.Participants[name] = &model.ParticipantStats{
			Name:          name,
			FirstPlace:    t.first[i],
			LastPlace:     t.last[i],
			FirstPlacePct: ratio(t.first[i], t.trials),
			LastPlacePct:  ratio(t.last[i], t.trials),
		}
	}

	if t.plan.focal >= 0 {
		focal := &model.FocalDiagnostics{
			Participant:    t.names[t.plan.focal],
			Wins:           t.focalWins,
			Examples:       t.examples,
			RoundCounts:    t.roundCounts,
			RoundFrequency: make(map[string][]float64, len(t.roundCounts)),
		}
		if focal.Examples == nil {
			focal.Examples = []model.Example{}
		}
		for team, counts := range t.roundCounts {
			freq := make([]float64, len(counts))
			for r, c := range counts {
				freq[r] = ratio(c, t.focalWins)
			}
			focal.RoundFrequency[team] = freq
		}
		stats.Focal = focal
	}
	return stats
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
