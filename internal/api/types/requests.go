// Package types defines API request and response types.
package types

import "github.com/growhub/growhub/internal/database/models"

// ScheduleRuleRequest describes one recurring actuation window in a stage.
type ScheduleRuleRequest struct {
	TargetRole       string `json:"target_role" validate:"required,oneof=pump light fan mister heater"`
	DurationSeconds  int    `json:"duration_seconds" validate:"required,min=1"`
	FrequencySeconds int    `json:"frequency_seconds" validate:"required,min=1"`
	StartTime        string `json:"start_time" validate:"omitempty"`
	EndTime          string `json:"end_time" validate:"omitempty"`
}

// LightingRuleRequest describes a stage's optional daily lighting window.
type LightingRuleRequest struct {
	Enabled bool `json:"enabled"`
	OnHour  *int `json:"on_hour" validate:"omitempty,min=0,max=23"`
	OffHour *int `json:"off_hour" validate:"omitempty,min=0,max=23"`
}

// StageRequest describes one stage of a program.
type StageRequest struct {
	Type      string                `json:"type" validate:"required,oneof=germination seedling vegetative flowering harvest"`
	Name      string                `json:"name" validate:"required,min=1,max=255"`
	DayStart  int                   `json:"day_start" validate:"required,min=1"`
	DayEnd    int                   `json:"day_end" validate:"required,min=1"`
	Schedules []ScheduleRuleRequest `json:"schedules" validate:"omitempty,dive"`
	Lighting  LightingRuleRequest   `json:"lighting"`
}

// CreateProgramRequest represents a request to create a grow program.
type CreateProgramRequest struct {
	Name      string         `json:"name" validate:"required,min=1,max=255"`
	CropType  string         `json:"crop_type" validate:"required,min=1,max=255"`
	TotalDays int            `json:"total_days" validate:"required,min=1"`
	Stages    []StageRequest `json:"stages" validate:"required,min=1,dive"`
}

// ToModel converts the request into a domain program.
func (r *CreateProgramRequest) ToModel() *models.GrowProgram {
	stages := make([]models.GrowStage, len(r.Stages))
	for i, s := range r.Stages {
		rules := make([]models.ScheduleRule, len(s.Schedules))
		for j, rule := range s.Schedules {
			rules[j] = models.ScheduleRule{
				TargetRole:       models.ActuatorRole(rule.TargetRole),
				DurationSeconds:  rule.DurationSeconds,
				FrequencySeconds: rule.FrequencySeconds,
				StartTime:        rule.StartTime,
				EndTime:          rule.EndTime,
			}
		}
		stages[i] = models.GrowStage{
			Type:      models.StageType(s.Type),
			Name:      s.Name,
			DayStart:  s.DayStart,
			DayEnd:    s.DayEnd,
			Schedules: rules,
			Lighting: models.LightingRule{
				Enabled: s.Lighting.Enabled,
				OnHour:  s.Lighting.OnHour,
				OffHour: s.Lighting.OffHour,
			},
		}
	}
	return models.NewGrowProgram(r.Name, r.CropType, r.TotalDays, stages)
}

// StartCycleRequest represents a request to start a grow cycle on a module.
type StartCycleRequest struct {
	ProgramID   string         `json:"program_id" validate:"required,uuid"`
	ModuleID    string         `json:"module_id" validate:"required,min=1,max=255"`
	PinBindings map[string]int `json:"pin_bindings" validate:"required,min=1"`
}

// Bindings converts the request's role-to-pin map into domain bindings.
func (r *StartCycleRequest) Bindings() models.PinBindings {
	bindings := make(models.PinBindings, len(r.PinBindings))
	for role, pin := range r.PinBindings {
		bindings[models.ActuatorRole(role)] = pin
	}
	return bindings
}

// CompleteCycleRequest represents a request to complete a cycle, optionally
// recording the harvest outcome.
type CompleteCycleRequest struct {
	Harvest *HarvestRequest `json:"harvest" validate:"omitempty"`
}

// HarvestRequest carries the harvest outcome for a completing cycle.
type HarvestRequest struct {
	WeightGrams float64 `json:"weight_grams" validate:"min=0"`
	Quality     string  `json:"quality" validate:"omitempty,max=255"`
	Notes       string  `json:"notes" validate:"omitempty,max=2000"`
}

// ToModel converts the request into a harvest record.
func (r *HarvestRequest) ToModel() *models.HarvestRecord {
	return &models.HarvestRecord{
		WeightGrams: r.WeightGrams,
		Quality:     r.Quality,
		Notes:       r.Notes,
	}
}

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// DefaultMaxLimit is the maximum allowed limit.
const DefaultMaxLimit = 100
