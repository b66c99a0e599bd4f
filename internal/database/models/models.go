// Package models defines domain models for the grow cycle engine and its
// persistence layer.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActuatorRole identifies the logical role an actuator plays on a grow module.
// Pin bindings map roles to physical output pins; stage schedule rules target
// roles, never pins.
type ActuatorRole string

const (
	RolePump   ActuatorRole = "pump"
	RoleLight  ActuatorRole = "light"
	RoleFan    ActuatorRole = "fan"
	RoleMister ActuatorRole = "mister"
	RoleHeater ActuatorRole = "heater"
)

// ValidRoles lists every recognized actuator role.
var ValidRoles = []ActuatorRole{RolePump, RoleLight, RoleFan, RoleMister, RoleHeater}

// IsValid reports whether the role is one of the recognized actuator roles.
func (r ActuatorRole) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// PinBindings maps logical actuator roles to physical pin numbers. Fixed for
// the lifetime of a cycle.
type PinBindings map[ActuatorRole]int

// Validate checks that every bound role is recognized and every pin is
// non-negative.
func (p PinBindings) Validate() error {
	for role, pin := range p {
		if !role.IsValid() {
			return fmt.Errorf("unknown actuator role %q", role)
		}
		if pin < 0 {
			return fmt.Errorf("role %q bound to negative pin %d", role, pin)
		}
	}
	return nil
}

// StageType enumerates the recognized growth stage kinds.
type StageType string

const (
	StageGermination StageType = "germination"
	StageSeedling    StageType = "seedling"
	StageVegetative  StageType = "vegetative"
	StageFlowering   StageType = "flowering"
	StageHarvest     StageType = "harvest"
)

// ScheduleRule describes one recurring actuation window within a stage. The
// rule names a logical role; the materializer resolves the physical pin at
// schedule-write time.
type ScheduleRule struct {
	TargetRole       ActuatorRole `bson:"targetRole" json:"target_role"`
	DurationSeconds  int          `bson:"durationSeconds" json:"duration_seconds"`
	FrequencySeconds int          `bson:"frequencySeconds" json:"frequency_seconds"`
	StartTime        string       `bson:"startTime,omitempty" json:"start_time,omitempty"`
	EndTime          string       `bson:"endTime,omitempty" json:"end_time,omitempty"`
}

// LightingRule describes an optional single daily lighting window for a stage.
// OnHour and OffHour are hours of day (0-23); the window may wrap past
// midnight.
type LightingRule struct {
	Enabled bool `bson:"enabled" json:"enabled"`
	OnHour  *int `bson:"onHour,omitempty" json:"on_hour,omitempty"`
	OffHour *int `bson:"offHour,omitempty" json:"off_hour,omitempty"`
}

// GrowStage is one named phase of a program with an inclusive day range and
// the timing rules in force while the stage is current.
type GrowStage struct {
	Type      StageType      `bson:"type" json:"type"`
	Name      string         `bson:"name" json:"name"`
	DayStart  int            `bson:"dayStart" json:"day_start"`
	DayEnd    int            `bson:"dayEnd" json:"day_end"`
	Schedules []ScheduleRule `bson:"schedules,omitempty" json:"schedules,omitempty"`
	Lighting  LightingRule   `bson:"lighting" json:"lighting"`
}

// Contains reports whether day falls within the stage's inclusive day range.
func (s GrowStage) Contains(day int) bool {
	return day >= s.DayStart && day <= s.DayEnd
}

// GrowProgram is a reusable template of ordered stages. Immutable once a
// cycle has been started from it.
type GrowProgram struct {
	ID        string      `bson:"_id" json:"id"`
	Name      string      `bson:"name" json:"name"`
	CropType  string      `bson:"cropType" json:"crop_type"`
	TotalDays int         `bson:"totalDays" json:"total_days"`
	Stages    []GrowStage `bson:"stages" json:"stages"`
	CreatedAt time.Time   `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time   `bson:"updatedAt" json:"updated_at"`
}

// StageForDay returns the stage whose day range contains day, or nil when day
// falls outside every stage (past the program's end).
func StageForDay(stages []GrowStage, day int) *GrowStage {
	for i := range stages {
		if stages[i].Contains(day) {
			return &stages[i]
		}
	}
	return nil
}

// CycleStatus is the lifecycle state of a grow cycle.
type CycleStatus string

const (
	CycleActive    CycleStatus = "active"
	CyclePaused    CycleStatus = "paused"
	CycleCompleted CycleStatus = "completed"
	CycleAborted   CycleStatus = "aborted"
)

// Terminal reports whether the status permits no further transitions.
func (s CycleStatus) Terminal() bool {
	return s == CycleCompleted || s == CycleAborted
}

// StageHistoryEntry records one stage occupancy in a cycle's append-only
// audit trail. CompletedAt is nil while the stage is current.
type StageHistoryEntry struct {
	Stage       StageType  `bson:"stage" json:"stage"`
	StageName   string     `bson:"stageName" json:"stage_name"`
	StartedAt   time.Time  `bson:"startedAt" json:"started_at"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// DailyLogEntry is an observability record of which stage a cycle was in on a
// given day. Not consulted by control logic.
type DailyLogEntry struct {
	Day   int       `bson:"day" json:"day"`
	Date  time.Time `bson:"date" json:"date"`
	Stage StageType `bson:"stage" json:"stage"`
}

// HarvestRecord is the optional outcome attached when a cycle completes.
type HarvestRecord struct {
	WeightGrams float64   `bson:"weightGrams" json:"weight_grams"`
	Quality     string    `bson:"quality,omitempty" json:"quality,omitempty"`
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt  time.Time `bson:"recordedAt" json:"recorded_at"`
}

// GrowCycle is one attempt at running a program on a module. The stage list
// is frozen from the program at start time and never re-read, so later edits
// to the template cannot change a running cycle's behavior.
type GrowCycle struct {
	ID             string `bson:"_id" json:"id"`
	ModuleID       string `bson:"moduleId" json:"module_id"`
	OrganizationID string `bson:"organizationId" json:"organization_id"`

	ProgramID   string `bson:"programId" json:"program_id"`
	ProgramName string `bson:"programName" json:"program_name"`
	CropType    string `bson:"cropType" json:"crop_type"`
	TotalDays   int    `bson:"totalDays" json:"total_days"`

	Status          CycleStatus `bson:"status" json:"status"`
	AwaitingHarvest bool        `bson:"awaitingHarvest" json:"awaiting_harvest"`

	StartedAt   time.Time  `bson:"startedAt" json:"started_at"`
	PausedAt    *time.Time `bson:"pausedAt,omitempty" json:"paused_at,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updated_at"`

	CurrentDay   int       `bson:"currentDay" json:"current_day"`
	CurrentStage StageType `bson:"currentStage" json:"current_stage"`

	Stages       []GrowStage         `bson:"stages" json:"stages"`
	PinBindings  PinBindings         `bson:"pinBindings" json:"pin_bindings"`
	StageHistory []StageHistoryEntry `bson:"stageHistory" json:"stage_history"`
	DailyLog     []DailyLogEntry     `bson:"dailyLog,omitempty" json:"daily_log,omitempty"`
	Harvest      *HarvestRecord      `bson:"harvest,omitempty" json:"harvest,omitempty"`
}

// ScheduleManagedBy tags schedule entries owned by the grow cycle engine, so
// retraction can distinguish them from manually authored schedules.
const ScheduleManagedBy = "grow_cycle"

// ScheduleEntry is a materialized, device-readable timing rule written under
// a module's actuator-state document at pins.<pin>.schedules.<scheduleId>.
type ScheduleEntry struct {
	ScheduleID       string    `bson:"scheduleId" json:"schedule_id"`
	Name             string    `bson:"name" json:"name"`
	DurationSeconds  int       `bson:"durationSeconds" json:"duration_seconds"`
	FrequencySeconds int       `bson:"frequencySeconds" json:"frequency_seconds"`
	StartTime        string    `bson:"startTime,omitempty" json:"start_time,omitempty"`
	EndTime          string    `bson:"endTime,omitempty" json:"end_time,omitempty"`
	Enabled          bool      `bson:"enabled" json:"enabled"`
	Pin              int       `bson:"pin" json:"pin"`
	ManagedBy        string    `bson:"managedBy" json:"managed_by"`
	CycleID          string    `bson:"cycleId" json:"cycle_id"`
	Stage            StageType `bson:"stage" json:"stage"`
	StageName        string    `bson:"stageName" json:"stage_name"`
	CreatedAt        time.Time `bson:"createdAt" json:"created_at"`
}

// ScheduleEntryID builds the deterministic, collision-free key for a
// cycle+role pair. Re-materializing a stage overwrites the prior entry at the
// same key, which is what keeps the materializer idempotent.
func ScheduleEntryID(cycleID string, role ActuatorRole) string {
	return fmt.Sprintf("cycle_%s_%s", cycleID, role)
}

// PinState holds the device-facing state of one physical pin. The engine only
// ever touches the schedules sub-map.
type PinState struct {
	Schedules map[string]ScheduleEntry `bson:"schedules,omitempty" json:"schedules,omitempty"`
}

// DeviceState is a module's actuator-state document, keyed by module identity.
// Schedule entries are addressed as pins.<pin>.schedules.<scheduleId>.
type DeviceState struct {
	ModuleID  string              `bson:"_id" json:"module_id"`
	Pins      map[string]PinState `bson:"pins,omitempty" json:"pins,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updated_at"`
}

// NewGrowProgram creates a program with a fresh ID and timestamps.
func NewGrowProgram(name, cropType string, totalDays int, stages []GrowStage) *GrowProgram {
	now := time.Now().UTC()
	return &GrowProgram{
		ID:        uuid.New().String(),
		Name:      name,
		CropType:  cropType,
		TotalDays: totalDays,
		Stages:    stages,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CloneStages deep-copies a stage list, including each stage's schedule
// rules and lighting hour pointers, so the copy shares no memory with the
// stages it came from.
func CloneStages(stages []GrowStage) []GrowStage {
	out := make([]GrowStage, len(stages))
	for i, s := range stages {
		if s.Schedules != nil {
			s.Schedules = append([]ScheduleRule(nil), s.Schedules...)
		}
		if s.Lighting.OnHour != nil {
			on := *s.Lighting.OnHour
			s.Lighting.OnHour = &on
		}
		if s.Lighting.OffHour != nil {
			off := *s.Lighting.OffHour
			s.Lighting.OffHour = &off
		}
		out[i] = s
	}
	return out
}

// NewGrowCycle freezes a program into a new active cycle for a module. The
// caller is responsible for program validation; the first stage becomes
// current and the history/daily log are seeded for day 1.
func NewGrowCycle(program *GrowProgram, moduleID, organizationID string, bindings PinBindings, now time.Time) *GrowCycle {
	stages := CloneStages(program.Stages)

	first := stages[0]
	return &GrowCycle{
		ID:             uuid.New().String(),
		ModuleID:       moduleID,
		OrganizationID: organizationID,
		ProgramID:      program.ID,
		ProgramName:    program.Name,
		CropType:       program.CropType,
		TotalDays:      program.TotalDays,
		Status:         CycleActive,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
		CurrentDay:     1,
		CurrentStage:   first.Type,
		Stages:         stages,
		PinBindings:    bindings,
		StageHistory: []StageHistoryEntry{
			{Stage: first.Type, StageName: first.Name, StartedAt: now},
		},
		DailyLog: []DailyLogEntry{
			{Day: 1, Date: now, Stage: first.Type},
		},
	}
}
