package repository

import (
	"context"

	"github.com/growhub/growhub/internal/database/models"
)

// ProgramRepo defines persistence operations for grow programs. Programs are
// authored once and read-only thereafter, so there is no update operation.
type ProgramRepo interface {
	// Create inserts a new program.
	Create(ctx context.Context, p *models.GrowProgram) error
	// GetByID retrieves a program by its ID.
	GetByID(ctx context.Context, id string) (*models.GrowProgram, error)
	// List retrieves programs with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]*models.GrowProgram, error)
}

// CycleFilter narrows cycle listings.
type CycleFilter struct {
	ModuleID       string
	OrganizationID string
	Status         models.CycleStatus
}

// CycleRepo defines persistence operations for grow cycles.
type CycleRepo interface {
	// Create inserts a new cycle. Returns ErrActiveCycleExists when the
	// module already has an active cycle.
	Create(ctx context.Context, c *models.GrowCycle) error
	// GetByID retrieves a cycle by its ID.
	GetByID(ctx context.Context, id string) (*models.GrowCycle, error)
	// FindActiveByModule retrieves the module's active cycle, if any.
	FindActiveByModule(ctx context.Context, moduleID string) (*models.GrowCycle, error)
	// List retrieves cycles matching the filter with pagination, newest first.
	List(ctx context.Context, f CycleFilter, limit, offset int) ([]*models.GrowCycle, error)
	// Update replaces the cycle's mutable fields (status, timestamps,
	// harvest, awaiting-harvest flag).
	Update(ctx context.Context, c *models.GrowCycle) error
	// UpdateStage persists a stage transition with a compare-and-swap on the
	// expected prior stage. Returns ErrStageConflict when the stored stage no
	// longer matches from.
	UpdateStage(ctx context.Context, cycleID string, from, to models.StageType, history []models.StageHistoryEntry) error
	// SetCurrentDay persists the computed current day, optionally appending
	// a daily log entry.
	SetCurrentDay(ctx context.Context, cycleID string, day int, entry *models.DailyLogEntry) error
	// SetAwaitingHarvest flags a cycle whose elapsed day is past every
	// stage's range while it waits for a human to harvest.
	SetAwaitingHarvest(ctx context.Context, cycleID string, awaiting bool) error
}

// DeviceStateRepo defines operations on a module's actuator-state document.
// The engine only ever writes and removes schedule sub-entries; it never
// touches other device fields.
type DeviceStateRepo interface {
	// Get retrieves the module's actuator-state document.
	Get(ctx context.Context, moduleID string) (*models.DeviceState, error)
	// PutSchedules writes all entries in a single batched update so a crash
	// mid-stage can never leave the stage half-scheduled. Creates the
	// document if it does not exist.
	PutSchedules(ctx context.Context, moduleID string, entries []models.ScheduleEntry) error
	// RemoveCycleSchedules deletes every schedule entry tagged with cycleID
	// across all pins in one batched update, returning the number removed.
	// A missing device document is a no-op, not an error.
	RemoveCycleSchedules(ctx context.Context, moduleID, cycleID string) (int, error)
	// SetCycleSchedulesEnabled toggles the enabled flag on every entry
	// tagged with cycleID, returning the number affected. A missing device
	// document is a no-op, not an error.
	SetCycleSchedulesEnabled(ctx context.Context, moduleID, cycleID string, enabled bool) (int, error)
}
