// Package matchup turns two team ratings into a head-to-head win probability
// and draws single game outcomes from it.
package matchup

import (
	"fmt"
	"math"

	"github.com/okian/bracketpool/internal/domain/model"
)

// DefaultScale is the rating gap divisor for 538's NCAA power ratings:
// a gap of one rating point shifts the log-odds by 30.464/400 decades.
const DefaultScale = 400.0 / 30.464

// Mode selects how win probabilities are derived.
type Mode string

const (
	// ModeScaled uses the rating-difference formula.
	ModeScaled Mode = "scaled"
	// ModeEven ignores ratings and gives every game to either side with 0.5.
	ModeEven Mode = "even"
)

// ParseMode validates a mode name. Empty selects ModeScaled.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeScaled:
		return ModeScaled, nil
	case ModeEven:
		return ModeEven, nil
	}
	return "", fmt.Errorf("%w: unknown probability mode %q", model.ErrConfiguration, s)
}

// Ratings looks up team strength.
type Ratings interface {
	Rating(team string) (float64, error)
}

// Source yields uniform draws in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithScale sets the rating gap divisor. Non-positive values are ignored.
func WithScale(scale float64) Option {
	return func(r *Resolver) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

// WithMode sets the probability mode.
func WithMode(mode Mode) Option {
	return func(r *Resolver) {
		if mode != "" {
			r.mode = mode
		}
	}
}

// Resolver decides single games. It holds no mutable state; all randomness
// comes from the Source passed to Resolve.
type Resolver struct {
	ratings Ratings
	scale   float64
	mode    Mode
}

// NewResolver creates a resolver over the given ratings.
func NewResolver(ratings Ratings, opts ...Option) *Resolver {
	r := &Resolver{
		ratings: ratings,
		scale:   DefaultScale,
		mode:    ModeScaled,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scale returns the configured rating gap divisor.
func (r *Resolver) Scale() float64 { return r.scale }

// Mode returns the configured probability mode.
func (r *Resolver) Mode() Mode { return r.mode }

// Probability returns P(A beats B) for two ratings under scale.
func Probability(ratingA, ratingB, scale float64) float64 {
	if ratingA == ratingB {
		return 0.5
	}
	return 1 / (1 + math.Pow(10, -(ratingA-ratingB)/scale))
}

// WinProbability returns the probability that teamA beats teamB. Even mode
// never reads ratings.
func (r *Resolver) WinProbability(teamA, teamB string) (float64, error) {
	if r.mode == ModeEven {
		return 0.5, nil
	}
	ra, err := r.ratings.Rating(teamA)
	if err != nil {
		return 0, err
	}
	rb, err := r.ratings.Rating(teamB)
	if err != nil {
		return 0, err
	}
	return Probability(ra, rb, r.scale), nil
}

// Resolve draws one outcome: teamA wins when the draw falls below its win
// probability. Exactly one draw is consumed per call that returns no error.
func (r *Resolver) Resolve(rng Source, teamA, teamB string) (string, error) {
	p, err := r.WinProbability(teamA, teamB)
	if err != nil {
		return model.Unresolved, err
	}
	if rng.Float64() < p {
		return teamA, nil
	}
	return teamB, nil
}
