package growcycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
)

// Evaluate computes the cycle's elapsed day, maps it to the stage whose day
// range contains it, and transitions when the mapped stage differs from the
// recorded one. Returns true when a transition was performed.
//
// A cycle whose elapsed day is past every stage's range is never completed
// automatically: harvesting is a human decision. The cycle stays active and
// is flagged awaiting-harvest so the condition is observable rather than
// silent.
func (e *Engine) Evaluate(ctx context.Context, cycle *models.GrowCycle) (bool, error) {
	if cycle.Status != models.CycleActive {
		return false, nil
	}

	release, acquired, err := e.locker.Acquire(ctx, "cycle:"+cycle.ID, e.lockTTL)
	if err != nil {
		return false, err
	}
	if !acquired {
		// Another evaluator holds the cycle; it will do the work.
		return false, nil
	}
	defer release()

	now := e.now()
	day := currentDay(cycle.StartedAt, now)
	target := models.StageForDay(cycle.Stages, day)

	log := e.logger.With(
		slog.String("cycle_id", cycle.ID),
		slog.Int("day", day),
	)

	if day != cycle.CurrentDay {
		var entry *models.DailyLogEntry
		if target != nil {
			entry = &models.DailyLogEntry{Day: day, Date: now.UTC(), Stage: target.Type}
		}
		if err := e.cycles.SetCurrentDay(ctx, cycle.ID, day, entry); err != nil {
			return false, err
		}
		cycle.CurrentDay = day
	}
	if e.metrics != nil {
		e.metrics.RecordEvaluation()
	}

	if target == nil {
		// Past totalDays: wait for a human to harvest.
		if !cycle.AwaitingHarvest {
			if err := e.cycles.SetAwaitingHarvest(ctx, cycle.ID, true); err != nil {
				return false, err
			}
			cycle.AwaitingHarvest = true
			log.Info("cycle past final stage, awaiting harvest")
		}
		return false, nil
	}

	if target.Type == cycle.CurrentStage {
		return false, nil
	}

	if err := e.TransitionStage(ctx, cycle, target); err != nil {
		if errors.Is(err, repository.ErrStageConflict) {
			// Another evaluator already performed this transition.
			log.Info("stage transition lost race, skipping")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// currentDay returns the 1-indexed whole elapsed days since start.
func currentDay(startedAt, now time.Time) int {
	day := int(now.Sub(startedAt)/(24*time.Hour)) + 1
	if day < 1 {
		day = 1
	}
	return day
}
