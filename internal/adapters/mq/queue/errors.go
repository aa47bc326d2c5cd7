package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrStopped is returned once the queue is closed and drained.
	ErrStopped = errors.New("queue stopped")
	// ErrClosed is returned when enqueueing into a closed queue.
	ErrClosed = errors.New("queue closed")
)
