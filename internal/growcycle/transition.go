package growcycle

import (
	"context"
	"log/slog"

	"github.com/growhub/growhub/internal/database/models"
)

// TransitionStage moves a cycle from its current stage to target. The order
// of operations matters for behavior under partial failure:
//
//  1. retract the current stage's schedule entries
//  2. materialize the target stage's entries
//  3. stamp the previous history entry's completedAt
//  4. append a history entry for the target stage
//  5. persist currentStage and the history via compare-and-swap
//
// If step 2 fails after step 1 succeeded, the module is left with no active
// schedules for this cycle until the next evaluation retries, so no actuator
// keeps running under a stale stage's rules. The CAS in step 5 means a
// concurrent transition by another evaluator surfaces as
// repository.ErrStageConflict rather than a duplicated history entry.
func (e *Engine) TransitionStage(ctx context.Context, cycle *models.GrowCycle, target *models.GrowStage) error {
	log := e.logger.With(
		slog.String("cycle_id", cycle.ID),
		slog.String("module_id", cycle.ModuleID),
		slog.String("from", string(cycle.CurrentStage)),
		slog.String("to", string(target.Type)),
	)

	removed, err := e.clearCycleSchedules(ctx, cycle.ModuleID, cycle.ID)
	if err != nil {
		return err
	}

	written, err := e.writeStageSchedules(ctx, cycle.ModuleID, target, cycle.PinBindings, cycle.ID)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	history := append([]models.StageHistoryEntry(nil), cycle.StageHistory...)
	if n := len(history); n > 0 && history[n-1].CompletedAt == nil {
		completed := now
		history[n-1].CompletedAt = &completed
	}
	history = append(history, models.StageHistoryEntry{
		Stage:     target.Type,
		StageName: target.Name,
		StartedAt: now,
	})

	if err := e.cycles.UpdateStage(ctx, cycle.ID, cycle.CurrentStage, target.Type, history); err != nil {
		return err
	}

	cycle.CurrentStage = target.Type
	cycle.StageHistory = history

	log.Info("stage transitioned",
		slog.Int("schedules_removed", removed),
		slog.Int("schedules_written", written))
	if e.metrics != nil {
		e.metrics.RecordTransition()
		e.metrics.RecordRetraction(removed)
		e.metrics.RecordScheduleWrites(written)
	}
	return nil
}
