package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the pipeline wraps one of these.
var (
	// ErrMissingConfiguration: the mapping or snapshot source is absent or unreadable.
	// Fatal for the current pass.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrUnresolvedMapping: a stage, sub-stage or series was not found. Recovered by
	// falling back one level; only ever reported as a warning.
	ErrUnresolvedMapping = errors.New("unresolved mapping")

	// ErrFilterPrecondition: the selection cannot be evaluated (e.g. no year selected).
	// Halts the current pass with a corrective prompt.
	ErrFilterPrecondition = errors.New("filter precondition unmet")

	// ErrConversion: an export could not be produced. Recovered with a placeholder payload.
	ErrConversion = errors.New("conversion error")

	// ErrUnknownDataset: the requested dataset key is not registered.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// ErrNoYearSelected is returned by Filter when the year selection is empty.
var ErrNoYearSelected = fmt.Errorf("%w: no year selected", ErrFilterPrecondition)
