// Package aggregate runs batches of simulated tournaments and turns the
// per-trial standings into first/last place statistics.
package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/scoring"
	"github.com/okian/bracketpool/internal/domain/simulation"
)

// DefaultExampleCap bounds retained focal examples when a request leaves it unset.
const DefaultExampleCap = 5

// Request describes one batch of trials.
type Request struct {
	Trials int                   `json:"trials"`
	Forced []model.ForcedOutcome `json:"forced,omitempty"`
	// Focal enables diagnostics for one participant.
	Focal string `json:"focal,omitempty"`
	// ExampleCap caps retained examples; zero means DefaultExampleCap and a
	// negative value keeps none.
	ExampleCap int             `json:"example_cap,omitempty"`
	Seed       *int64          `json:"seed,omitempty"`
	TiePolicy  model.TiePolicy `json:"tie_policy,omitempty"`
}

// Fingerprint identifies the request by content: equal requests share a
// fingerprint and any differing field changes it.
func (r Request) Fingerprint() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("unencodable:%v", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Plan is a validated Request, ready to be executed by one or many workers.
type Plan struct {
	Trials      int
	Seed        int64
	Constraints *bracket.Constraints
	TiePolicy   model.TiePolicy
	ExampleCap  int
	// focal is the participant index, or -1.
	focal int
}

// Focal returns the focal participant index, or -1 when diagnostics are off.
func (p *Plan) Focal() int { return p.focal }

// Aggregator owns the shared read-only inputs of a pool contest.
type Aggregator struct {
	sim          *simulation.Simulator
	scorer       *scoring.PickScorer
	participants []model.Participant
}

// New creates an Aggregator. Participants are not copied and must not be
// mutated afterwards.
func New(sim *simulation.Simulator, scorer *scoring.PickScorer, participants []model.Participant) *Aggregator {
	return &Aggregator{sim: sim, scorer: scorer, participants: participants}
}

// Participants returns the contest members in input order.
func (a *Aggregator) Participants() []model.Participant { return a.participants }

// Prepare validates the request, picks and forced outcomes and resolves the seed.
func (a *Aggregator) Prepare(req Request) (*Plan, error) {
	if req.Trials < 0 {
		return nil, fmt.Errorf("%w: negative trial count %d", model.ErrConfiguration, req.Trials)
	}
	policy, err := model.ParseTiePolicy(string(req.TiePolicy))
	if err != nil {
		return nil, err
	}
	for _, p := range a.participants {
		if err := a.scorer.Validate(p); err != nil {
			return nil, err
		}
	}
	constraints, err := a.sim.Graph().Compile(req.Forced)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Trials:      req.Trials,
		Constraints: constraints,
		TiePolicy:   policy,
		ExampleCap:  req.ExampleCap,
		focal:       -1,
	}
	switch {
	case plan.ExampleCap == 0:
		plan.ExampleCap = DefaultExampleCap
	case plan.ExampleCap < 0:
		plan.ExampleCap = 0
	}
	if req.Seed != nil {
		plan.Seed = *req.Seed
	} else {
		plan.Seed = time.Now().UnixNano()
	}
	if req.Focal != "" {
		for i, p := range a.participants {
			if p.Name == req.Focal {
				plan.focal = i
				break
			}
		}
		if plan.focal < 0 {
			return nil, fmt.Errorf("%w: focal participant %q is not in the pool", model.ErrConfiguration, req.Focal)
		}
	}
	return plan, nil
}

// TrialSource returns the random stream of one trial. Streams depend only on
// (seed, trial), so any split of trials across workers replays identically.
func TrialSource(seed int64, trial int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(trial))) //nolint:gosec // reproducible simulation stream
}

// RunTrial simulates trial number index and records it into t.
func (a *Aggregator) RunTrial(plan *Plan, index int, t *Tally) error {
	result, err := a.sim.RunTrial(TrialSource(plan.Seed, index), plan.Constraints)
	if err != nil {
		return fmt.Errorf("trial %d: %w", index, err)
	}
	result.Index = index
	t.scores = a.scorer.ScoreAll(result, a.participants, t.scores)
	t.record(result)
	return nil
}

// Execute runs every trial of plan sequentially on the calling goroutine.
func (a *Aggregator) Execute(ctx context.Context, plan *Plan) (*Tally, error) {
	t := a.NewTally(plan)
	for i := 0; i < plan.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aggregation stopped after %d trials: %w", i, err)
		}
		if err := a.RunTrial(plan, i, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CountOutcomes runs req.Trials independent trials and returns finalized stats.
func (a *Aggregator) CountOutcomes(ctx context.Context, req Request) (*model.AggregateStats, error) {
	plan, err := a.Prepare(req)
	if err != nil {
		return nil, err
	}
	t, err := a.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	return t.Finalize(), nil
}
