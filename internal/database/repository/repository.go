// Package repository implements data access for grow programs, grow cycles,
// and per-module device actuator state.
package repository

import "errors"

// Common errors returned by repository operations.
var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrActiveCycleExists is returned when inserting a cycle would violate
	// the one-active-cycle-per-module invariant. Enforced at the data layer
	// (a partial unique index in MongoDB) so two concurrent starts cannot
	// both pass a check-then-insert precondition.
	ErrActiveCycleExists = errors.New("an active cycle already exists for this module")

	// ErrStageConflict is returned when a compare-and-swap stage update finds
	// the cycle's current stage no longer matches the expected value. The
	// caller lost a transition race and should treat the operation as already
	// performed.
	ErrStageConflict = errors.New("cycle stage changed concurrently")
)

// Repositories bundles the repository interfaces for dependency injection.
type Repositories struct {
	Programs ProgramRepo
	Cycles   CycleRepo
	Devices  DeviceStateRepo
}
