// Package tasks defines the asynq task types and handlers that drive grow
// cycle evaluation.
package tasks

// Task type identifiers.
const (
	// TypeCycleSweep scans for active cycles and fans out evaluation tasks.
	TypeCycleSweep = "growcycle:sweep"

	// TypeCycleEvaluate evaluates a single cycle.
	TypeCycleEvaluate = "growcycle:evaluate"
)

// SweepCronSpec is the cadence of the sweep task. One minute keeps stage
// transitions close to their scheduled day boundary without hammering the
// store.
const SweepCronSpec = "@every 1m"
