package service

import (
	"errors"
	"fmt"

	"github.com/okian/bracketpool/internal/domain/model"
)

var (
	// ErrTooManyTrials is returned when a request exceeds the configured cap.
	// It wraps model.ErrConfiguration.
	ErrTooManyTrials = fmt.Errorf("%w: too many trials", model.ErrConfiguration)
	// ErrNoDataset is returned by New when no dataset is given.
	ErrNoDataset = errors.New("no dataset loaded")
)
