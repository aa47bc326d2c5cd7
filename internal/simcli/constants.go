package simcli

import "time"

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

const (
	defaultTimeout = 5 * time.Minute
	defaultTopN    = 10

	logFilePermission   = 0o600
	outputPermission    = 0o644
	directoryPermission = 0o750
)
