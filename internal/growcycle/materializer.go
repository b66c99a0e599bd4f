package growcycle

import (
	"context"
	"fmt"
	"time"

	"github.com/growhub/growhub/internal/database/models"
)

// LightingWindowHours computes the daily lighting window length for an
// on/off hour pair. The window may wrap past midnight: on=22 off=6 is an
// 8-hour window, not a negative one. Equal hours mean a full 24-hour window.
func LightingWindowHours(onHour, offHour int) int {
	if offHour > onHour {
		return offHour - onHour
	}
	return 24 - onHour + offHour
}

// BuildStageEntries translates one stage's timing rules into device-ready
// schedule entries for the given cycle. Rules whose role has no pin binding
// are skipped silently: a stage may declare a role the module has no pin
// for, which is a tolerated partial binding, not an error.
func BuildStageEntries(cycleID string, stage *models.GrowStage, bindings models.PinBindings, now time.Time) []models.ScheduleEntry {
	entries := []models.ScheduleEntry{}

	for _, rule := range stage.Schedules {
		pin, bound := bindings[rule.TargetRole]
		if !bound {
			continue
		}
		entries = append(entries, models.ScheduleEntry{
			ScheduleID:       models.ScheduleEntryID(cycleID, rule.TargetRole),
			Name:             fmt.Sprintf("%s %s", stage.Name, rule.TargetRole),
			DurationSeconds:  rule.DurationSeconds,
			FrequencySeconds: rule.FrequencySeconds,
			StartTime:        rule.StartTime,
			EndTime:          rule.EndTime,
			Enabled:          true,
			Pin:              pin,
			ManagedBy:        models.ScheduleManagedBy,
			CycleID:          cycleID,
			Stage:            stage.Type,
			StageName:        stage.Name,
			CreatedAt:        now,
		})
	}

	// Lighting is a distinguished pseudo-role with a single once-daily
	// window derived from the on/off hours.
	if l := stage.Lighting; l.Enabled && l.OnHour != nil && l.OffHour != nil {
		if pin, bound := bindings[models.RoleLight]; bound {
			entries = append(entries, models.ScheduleEntry{
				ScheduleID:       models.ScheduleEntryID(cycleID, models.RoleLight),
				Name:             fmt.Sprintf("%s %s", stage.Name, models.RoleLight),
				DurationSeconds:  LightingWindowHours(*l.OnHour, *l.OffHour) * 3600,
				FrequencySeconds: 86400,
				StartTime:        fmt.Sprintf("%02d:00", *l.OnHour),
				EndTime:          fmt.Sprintf("%02d:00", *l.OffHour),
				Enabled:          true,
				Pin:              pin,
				ManagedBy:        models.ScheduleManagedBy,
				CycleID:          cycleID,
				Stage:            stage.Type,
				StageName:        stage.Name,
				CreatedAt:        now,
			})
		}
	}

	return entries
}

// writeStageSchedules materializes a stage's entries into the module's
// actuator-state document as a single batched write, so a crash mid-stage
// can never leave the stage half-scheduled. Deterministic entry keys make
// re-entrant calls overwrite rather than duplicate.
func (e *Engine) writeStageSchedules(ctx context.Context, moduleID string, stage *models.GrowStage, bindings models.PinBindings, cycleID string) (int, error) {
	entries := BuildStageEntries(cycleID, stage, bindings, e.now())
	if err := e.devices.PutSchedules(ctx, moduleID, entries); err != nil {
		return 0, fmt.Errorf("write stage schedules: %w", err)
	}
	return len(entries), nil
}

// clearCycleSchedules retracts every schedule entry tagged with the cycle's
// ID, sweeping all pins regardless of the current binding table.
func (e *Engine) clearCycleSchedules(ctx context.Context, moduleID, cycleID string) (int, error) {
	removed, err := e.devices.RemoveCycleSchedules(ctx, moduleID, cycleID)
	if err != nil {
		return 0, fmt.Errorf("clear cycle schedules: %w", err)
	}
	return removed, nil
}
