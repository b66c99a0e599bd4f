package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/growhub/growhub/internal/database/models"
)

// In-memory implementations of the repository interfaces. Used by unit tests
// and by the API handler tests; they replicate the MongoDB implementations'
// semantics, including the one-active-cycle invariant, the stage CAS, and
// best-effort device cleanup.

// MemoryProgramRepository is an in-memory ProgramRepo.
type MemoryProgramRepository struct {
	mu       sync.RWMutex
	programs map[string]*models.GrowProgram
}

// NewMemoryProgramRepository creates an empty in-memory program repository.
func NewMemoryProgramRepository() *MemoryProgramRepository {
	return &MemoryProgramRepository{programs: make(map[string]*models.GrowProgram)}
}

// Create inserts a new program.
func (r *MemoryProgramRepository) Create(_ context.Context, p *models.GrowProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	cp := *p
	r.programs[p.ID] = &cp
	return nil
}

// GetByID retrieves a program by its ID.
func (r *MemoryProgramRepository) GetByID(_ context.Context, id string) (*models.GrowProgram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.programs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// List retrieves programs with pagination, newest first.
func (r *MemoryProgramRepository) List(_ context.Context, limit, offset int) ([]*models.GrowProgram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.GrowProgram, 0, len(r.programs))
	for _, p := range r.programs {
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

// MemoryCycleRepository is an in-memory CycleRepo.
type MemoryCycleRepository struct {
	mu     sync.RWMutex
	cycles map[string]*models.GrowCycle
}

// NewMemoryCycleRepository creates an empty in-memory cycle repository.
func NewMemoryCycleRepository() *MemoryCycleRepository {
	return &MemoryCycleRepository{cycles: make(map[string]*models.GrowCycle)}
}

func cloneCycle(c *models.GrowCycle) *models.GrowCycle {
	cp := *c
	cp.Stages = models.CloneStages(c.Stages)
	cp.StageHistory = append([]models.StageHistoryEntry(nil), c.StageHistory...)
	cp.DailyLog = append([]models.DailyLogEntry(nil), c.DailyLog...)
	if c.PinBindings != nil {
		cp.PinBindings = make(models.PinBindings, len(c.PinBindings))
		for k, v := range c.PinBindings {
			cp.PinBindings[k] = v
		}
	}
	if c.Harvest != nil {
		h := *c.Harvest
		cp.Harvest = &h
	}
	return &cp
}

// Create inserts a new cycle, enforcing the one-active-cycle invariant.
func (r *MemoryCycleRepository) Create(_ context.Context, c *models.GrowCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Status == models.CycleActive {
		for _, existing := range r.cycles {
			if existing.ModuleID == c.ModuleID && existing.Status == models.CycleActive {
				return ErrActiveCycleExists
			}
		}
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	r.cycles[c.ID] = cloneCycle(c)
	return nil
}

// GetByID retrieves a cycle by its ID.
func (r *MemoryCycleRepository) GetByID(_ context.Context, id string) (*models.GrowCycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cycles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCycle(c), nil
}

// FindActiveByModule retrieves the module's active cycle, if any.
func (r *MemoryCycleRepository) FindActiveByModule(_ context.Context, moduleID string) (*models.GrowCycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.cycles {
		if c.ModuleID == moduleID && c.Status == models.CycleActive {
			return cloneCycle(c), nil
		}
	}
	return nil, ErrNotFound
}

// List retrieves cycles matching the filter with pagination, newest first.
func (r *MemoryCycleRepository) List(_ context.Context, f CycleFilter, limit, offset int) ([]*models.GrowCycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*models.GrowCycle{}
	for _, c := range r.cycles {
		if f.ModuleID != "" && c.ModuleID != f.ModuleID {
			continue
		}
		if f.OrganizationID != "" && c.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		matched = append(matched, cloneCycle(c))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, limit, offset), nil
}

// Update replaces the cycle's mutable lifecycle fields.
func (r *MemoryCycleRepository) Update(_ context.Context, c *models.GrowCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cycles[c.ID]
	if !ok {
		return ErrNotFound
	}

	c.UpdatedAt = time.Now().UTC()
	stored.Status = c.Status
	stored.AwaitingHarvest = c.AwaitingHarvest
	stored.PausedAt = c.PausedAt
	stored.CompletedAt = c.CompletedAt
	stored.UpdatedAt = c.UpdatedAt
	if c.Harvest != nil {
		h := *c.Harvest
		stored.Harvest = &h
	} else {
		stored.Harvest = nil
	}
	return nil
}

// UpdateStage persists a stage transition with a compare-and-swap on the
// expected prior stage.
func (r *MemoryCycleRepository) UpdateStage(_ context.Context, cycleID string, from, to models.StageType, history []models.StageHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cycles[cycleID]
	if !ok {
		return ErrNotFound
	}
	if stored.CurrentStage != from {
		return ErrStageConflict
	}

	stored.CurrentStage = to
	stored.StageHistory = append([]models.StageHistoryEntry(nil), history...)
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// SetCurrentDay persists the computed current day.
func (r *MemoryCycleRepository) SetCurrentDay(_ context.Context, cycleID string, day int, entry *models.DailyLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cycles[cycleID]
	if !ok {
		return ErrNotFound
	}
	stored.CurrentDay = day
	if entry != nil {
		stored.DailyLog = append(stored.DailyLog, *entry)
	}
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// SetAwaitingHarvest flags a cycle past every stage's day range.
func (r *MemoryCycleRepository) SetAwaitingHarvest(_ context.Context, cycleID string, awaiting bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cycles[cycleID]
	if !ok {
		return ErrNotFound
	}
	stored.AwaitingHarvest = awaiting
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryDeviceStateRepository is an in-memory DeviceStateRepo.
type MemoryDeviceStateRepository struct {
	mu      sync.RWMutex
	devices map[string]*models.DeviceState
}

// NewMemoryDeviceStateRepository creates an empty in-memory device-state
// repository.
func NewMemoryDeviceStateRepository() *MemoryDeviceStateRepository {
	return &MemoryDeviceStateRepository{devices: make(map[string]*models.DeviceState)}
}

// Seed inserts a device document, for tests that need a pre-existing module.
func (r *MemoryDeviceStateRepository) Seed(state *models.DeviceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[state.ModuleID] = cloneDeviceState(state)
}

func cloneDeviceState(s *models.DeviceState) *models.DeviceState {
	cp := *s
	cp.Pins = make(map[string]models.PinState, len(s.Pins))
	for pin, ps := range s.Pins {
		schedules := make(map[string]models.ScheduleEntry, len(ps.Schedules))
		for id, e := range ps.Schedules {
			schedules[id] = e
		}
		cp.Pins[pin] = models.PinState{Schedules: schedules}
	}
	return &cp
}

// Get retrieves the module's actuator-state document.
func (r *MemoryDeviceStateRepository) Get(_ context.Context, moduleID string) (*models.DeviceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.devices[moduleID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDeviceState(s), nil
}

// PutSchedules writes all entries atomically, creating the document if
// needed.
func (r *MemoryDeviceStateRepository) PutSchedules(_ context.Context, moduleID string, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.devices[moduleID]
	if !ok {
		s = &models.DeviceState{ModuleID: moduleID, Pins: make(map[string]models.PinState)}
		r.devices[moduleID] = s
	}
	if s.Pins == nil {
		s.Pins = make(map[string]models.PinState)
	}

	for _, e := range entries {
		pin := pinKey(e.Pin)
		ps, ok := s.Pins[pin]
		if !ok || ps.Schedules == nil {
			ps = models.PinState{Schedules: make(map[string]models.ScheduleEntry)}
		}
		ps.Schedules[e.ScheduleID] = e
		s.Pins[pin] = ps
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveCycleSchedules sweeps all pins for entries tagged with cycleID.
func (r *MemoryDeviceStateRepository) RemoveCycleSchedules(_ context.Context, moduleID, cycleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.devices[moduleID]
	if !ok {
		return 0, nil
	}

	removed := 0
	for pin, ps := range s.Pins {
		for id, e := range ps.Schedules {
			if e.ManagedBy == models.ScheduleManagedBy && e.CycleID == cycleID {
				delete(ps.Schedules, id)
				removed++
			}
		}
		s.Pins[pin] = ps
	}
	if removed > 0 {
		s.UpdatedAt = time.Now().UTC()
	}
	return removed, nil
}

// SetCycleSchedulesEnabled toggles the enabled flag on tagged entries.
func (r *MemoryDeviceStateRepository) SetCycleSchedulesEnabled(_ context.Context, moduleID, cycleID string, enabled bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.devices[moduleID]
	if !ok {
		return 0, nil
	}

	affected := 0
	for pin, ps := range s.Pins {
		for id, e := range ps.Schedules {
			if e.ManagedBy == models.ScheduleManagedBy && e.CycleID == cycleID {
				e.Enabled = enabled
				ps.Schedules[id] = e
				affected++
			}
		}
		s.Pins[pin] = ps
	}
	if affected > 0 {
		s.UpdatedAt = time.Now().UTC()
	}
	return affected, nil
}

// pinKey converts a pin number to its document-path key. Document paths key
// pins by their decimal string form.
func pinKey(pin int) string {
	return strconv.Itoa(pin)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
