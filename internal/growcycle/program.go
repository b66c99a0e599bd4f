package growcycle

import (
	"fmt"

	"github.com/growhub/growhub/internal/database/models"
)

// ValidateProgram checks a program's structural invariants at authoring time:
// a positive total day count, at least one stage, and stage day ranges that
// are contiguous, non-overlapping, and cover exactly 1..totalDays. Programs
// have no runtime behavior, so this is the only place they are validated.
func ValidateProgram(p *models.GrowProgram) error {
	if p.TotalDays <= 0 {
		return fmt.Errorf("totalDays must be positive, got %d", p.TotalDays)
	}
	if len(p.Stages) == 0 {
		return ErrNoStages
	}

	expectedStart := 1
	for i, stage := range p.Stages {
		if stage.Type == "" {
			return fmt.Errorf("stage %d: type is required", i)
		}
		if stage.DayStart > stage.DayEnd {
			return fmt.Errorf("stage %q: dayStart %d exceeds dayEnd %d", stage.Name, stage.DayStart, stage.DayEnd)
		}
		if stage.DayStart != expectedStart {
			return fmt.Errorf("stage %q: dayStart %d leaves a gap or overlap (expected %d)", stage.Name, stage.DayStart, expectedStart)
		}
		expectedStart = stage.DayEnd + 1

		for j, rule := range stage.Schedules {
			if !rule.TargetRole.IsValid() {
				return fmt.Errorf("stage %q schedule %d: unknown actuator role %q", stage.Name, j, rule.TargetRole)
			}
			if rule.DurationSeconds <= 0 {
				return fmt.Errorf("stage %q schedule %d: durationSeconds must be positive", stage.Name, j)
			}
			if rule.FrequencySeconds <= 0 {
				return fmt.Errorf("stage %q schedule %d: frequencySeconds must be positive", stage.Name, j)
			}
		}

		if stage.Lighting.Enabled {
			if err := validateLightingHour(stage.Name, "onHour", stage.Lighting.OnHour); err != nil {
				return err
			}
			if err := validateLightingHour(stage.Name, "offHour", stage.Lighting.OffHour); err != nil {
				return err
			}
		}
	}

	if expectedStart != p.TotalDays+1 {
		return fmt.Errorf("stages cover days 1..%d but totalDays is %d", expectedStart-1, p.TotalDays)
	}
	return nil
}

func validateLightingHour(stageName, field string, hour *int) error {
	if hour == nil {
		// Lighting enabled with an unset hour produces no window; tolerated
		// at authoring time, skipped by the materializer.
		return nil
	}
	if *hour < 0 || *hour > 23 {
		return fmt.Errorf("stage %q lighting: %s %d out of range 0-23", stageName, field, *hour)
	}
	return nil
}
