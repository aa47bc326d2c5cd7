package dedupe

import "errors"

var (
	// ErrInProgress is returned when a key is claimed but its run has not finished.
	ErrInProgress = errors.New("request with this key is still running")
	// ErrKeyReused is returned when a key comes back with a different request.
	ErrKeyReused = errors.New("key was used for a different request")
)
