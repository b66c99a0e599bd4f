// Package growcycle implements the grow cycle engine: program validation,
// cycle lifecycle operations, schedule materialization, stage transitions,
// and periodic evaluation.
package growcycle

import "errors"

var (
	// ErrInvalidStatus is returned when a lifecycle operation is not
	// permitted in the cycle's current status (e.g. resuming an active
	// cycle, aborting a completed one).
	ErrInvalidStatus = errors.New("operation not permitted in cycle's current status")

	// ErrNoStages is returned when a program defines no stages.
	ErrNoStages = errors.New("program must define at least one stage")
)
