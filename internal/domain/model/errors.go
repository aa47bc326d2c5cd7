package model

import "errors"

// Sentinel error kinds for the simulation engine. These allow errors.Is from callers.
var (
	// ErrConfiguration reports caller misuse: inconsistent forced outcomes,
	// malformed seeding, or picks that do not fit the bracket.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataIntegrity reports input data missing at the point of use,
	// e.g. a team without a rating.
	ErrDataIntegrity = errors.New("data integrity error")
)
