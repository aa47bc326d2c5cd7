package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound     = errors.New("run not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrDuplicateID  = errors.New("run id already stored")
	ErrEmptyID      = errors.New("run id is empty")
)
