package growcycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/pkg/metrics"
)

// defaultLockTTL bounds how long a crashed evaluator can hold a cycle lease.
const defaultLockTTL = 30 * time.Second

// Engine coordinates cycle lifecycle operations against the cycle store and
// the per-module device actuator-state documents.
type Engine struct {
	cycles  repository.CycleRepo
	devices repository.DeviceStateRepo
	locker  Locker
	logger  *slog.Logger
	metrics *metrics.Registry
	now     func() time.Time
	lockTTL time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker sets the per-cycle lock implementation.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the engine's time source. Tests use this to simulate
// elapsed days.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over the given repositories.
func NewEngine(cycles repository.CycleRepo, devices repository.DeviceStateRepo, opts ...Option) *Engine {
	e := &Engine{
		cycles:  cycles,
		devices: devices,
		locker:  NoopLocker{},
		logger:  slog.Default(),
		now:     time.Now,
		lockTTL: defaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "growcycle"))
	return e
}

// Start freezes the program into a new cycle for the module and materializes
// the first stage's schedules. The cycle document is inserted before any
// schedule entry is written, so a concurrent reader can never observe
// schedules without an owning cycle. Returns
// repository.ErrActiveCycleExists when the module already has an active
// cycle; the data layer's unique index enforces this even under concurrent
// starts.
func (e *Engine) Start(ctx context.Context, program *models.GrowProgram, moduleID, organizationID string, bindings models.PinBindings) (*models.GrowCycle, error) {
	if err := ValidateProgram(program); err != nil {
		return nil, err
	}
	if err := bindings.Validate(); err != nil {
		return nil, err
	}

	cycle := models.NewGrowCycle(program, moduleID, organizationID, bindings, e.now().UTC())
	if err := e.cycles.Create(ctx, cycle); err != nil {
		if errors.Is(err, repository.ErrActiveCycleExists) && e.metrics != nil {
			e.metrics.RecordStartConflict()
		}
		return nil, err
	}

	log := e.logger.With(
		slog.String("cycle_id", cycle.ID),
		slog.String("module_id", moduleID),
	)

	written, err := e.writeStageSchedules(ctx, moduleID, &cycle.Stages[0], bindings, cycle.ID)
	if err != nil {
		// The cycle exists; the first transition or a retried evaluation
		// will rewrite the missing schedules. No actuator runs in the
		// meantime.
		log.Error("failed to materialize initial stage schedules",
			slog.String("error", err.Error()))
	} else {
		log.Info("cycle started",
			slog.String("program", program.Name),
			slog.String("stage", string(cycle.CurrentStage)),
			slog.Int("schedules", written))
		if e.metrics != nil {
			e.metrics.RecordScheduleWrites(written)
		}
	}

	return cycle, nil
}

// Pause suspends an active cycle by disabling its schedule entries in place.
// Entries are not retracted, so resuming does not need to recompute any
// stage timing.
func (e *Engine) Pause(ctx context.Context, cycleID string) (*models.GrowCycle, error) {
	cycle, err := e.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CycleActive {
		return nil, ErrInvalidStatus
	}

	affected, err := e.devices.SetCycleSchedulesEnabled(ctx, cycle.ModuleID, cycle.ID, false)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	cycle.Status = models.CyclePaused
	cycle.PausedAt = &now
	if err := e.cycles.Update(ctx, cycle); err != nil {
		return nil, err
	}

	e.logger.Info("cycle paused",
		slog.String("cycle_id", cycle.ID),
		slog.Int("schedules_disabled", affected))
	return cycle, nil
}

// Resume re-enables a paused cycle's schedule entries and reactivates it.
func (e *Engine) Resume(ctx context.Context, cycleID string) (*models.GrowCycle, error) {
	cycle, err := e.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CyclePaused {
		return nil, ErrInvalidStatus
	}

	affected, err := e.devices.SetCycleSchedulesEnabled(ctx, cycle.ModuleID, cycle.ID, true)
	if err != nil {
		return nil, err
	}

	cycle.Status = models.CycleActive
	cycle.PausedAt = nil
	if err := e.cycles.Update(ctx, cycle); err != nil {
		return nil, err
	}

	e.logger.Info("cycle resumed",
		slog.String("cycle_id", cycle.ID),
		slog.Int("schedules_enabled", affected))
	return cycle, nil
}

// Complete retracts all of the cycle's schedule entries, marks it completed,
// and attaches the harvest record if provided. Idempotent: completing an
// already-completed cycle is a no-op, and retraction with no entries left
// removes nothing.
func (e *Engine) Complete(ctx context.Context, cycleID string, harvest *models.HarvestRecord) (*models.GrowCycle, error) {
	cycle, err := e.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status == models.CycleCompleted {
		return cycle, nil
	}
	if cycle.Status == models.CycleAborted {
		return nil, ErrInvalidStatus
	}

	return e.finish(ctx, cycle, models.CycleCompleted, harvest)
}

// Abort retracts all of the cycle's schedule entries and marks it aborted.
// No harvest data is recorded. Idempotent like Complete.
func (e *Engine) Abort(ctx context.Context, cycleID string) (*models.GrowCycle, error) {
	cycle, err := e.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status == models.CycleAborted {
		return cycle, nil
	}
	if cycle.Status == models.CycleCompleted {
		return nil, ErrInvalidStatus
	}

	return e.finish(ctx, cycle, models.CycleAborted, nil)
}

// finish runs the shared retract-then-terminal-status sequence.
func (e *Engine) finish(ctx context.Context, cycle *models.GrowCycle, status models.CycleStatus, harvest *models.HarvestRecord) (*models.GrowCycle, error) {
	removed, err := e.clearCycleSchedules(ctx, cycle.ModuleID, cycle.ID)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordRetraction(removed)
	}

	now := e.now().UTC()
	cycle.Status = status
	cycle.CompletedAt = &now
	cycle.PausedAt = nil
	cycle.AwaitingHarvest = false
	if harvest != nil {
		h := *harvest
		if h.RecordedAt.IsZero() {
			h.RecordedAt = now
		}
		cycle.Harvest = &h
	}

	if err := e.cycles.Update(ctx, cycle); err != nil {
		return nil, err
	}

	e.logger.Info("cycle finished",
		slog.String("cycle_id", cycle.ID),
		slog.String("status", string(status)),
		slog.Int("schedules_removed", removed))
	return cycle, nil
}
