package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job or its result store is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed caller input such as a
	// blank dataset name or an unknown sort column.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResultExists is returned when a result table is created twice
	// for the same job.
	ErrResultExists = errors.New("result store already exists")
)

// ConfigurationError marks a missing or malformed mapping table. It is
// fatal for the run that hit it: the pipeline aborts before producing any
// partial result store.
type ConfigurationError struct {
	Table string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: mapping table %s: %v", e.Table, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InProgressError is the typed, non-fatal answer to querying results
// before the job has completed. It carries the latest persisted snapshot
// so callers can render progress and poll again.
type InProgressError struct {
	Status          JobStatus
	Progress        float64
	ProgressMessage string
	Summary         *Summary
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("comparison still in progress: status=%s progress=%.1f%%", e.Status, e.Progress)
}
