package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/database/models"
)

func testCycle(moduleID string) *models.GrowCycle {
	program := models.NewGrowProgram("Lettuce", "lettuce", 14, []models.GrowStage{
		{Type: models.StageGermination, Name: "Germination", DayStart: 1, DayEnd: 5},
		{Type: models.StageVegetative, Name: "Vegetative", DayStart: 6, DayEnd: 14},
	})
	return models.NewGrowCycle(program, moduleID, "org-1",
		models.PinBindings{models.RolePump: 1}, time.Now().UTC())
}

func TestMemoryCycleRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCycleRepository()

	t.Run("one active cycle per module", func(t *testing.T) {
		first := testCycle("mod-1")
		require.NoError(t, repo.Create(ctx, first))

		err := repo.Create(ctx, testCycle("mod-1"))
		assert.ErrorIs(t, err, ErrActiveCycleExists)

		// A different module is unaffected.
		require.NoError(t, repo.Create(ctx, testCycle("mod-2")))
	})

	t.Run("terminal cycle frees the module", func(t *testing.T) {
		active, err := repo.FindActiveByModule(ctx, "mod-1")
		require.NoError(t, err)

		active.Status = models.CycleAborted
		require.NoError(t, repo.Update(ctx, active))

		require.NoError(t, repo.Create(ctx, testCycle("mod-1")))
	})
}

func TestMemoryCycleRepositoryUpdateStage(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCycleRepository()
	cycle := testCycle("mod-1")
	require.NoError(t, repo.Create(ctx, cycle))

	now := time.Now().UTC()
	history := append([]models.StageHistoryEntry(nil), cycle.StageHistory...)
	history[0].CompletedAt = &now
	history = append(history, models.StageHistoryEntry{
		Stage: models.StageVegetative, StageName: "Vegetative", StartedAt: now,
	})

	t.Run("cas succeeds from the recorded stage", func(t *testing.T) {
		err := repo.UpdateStage(ctx, cycle.ID, models.StageGermination, models.StageVegetative, history)
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageVegetative, stored.CurrentStage)
		assert.Len(t, stored.StageHistory, 2)
	})

	t.Run("cas from stale stage conflicts", func(t *testing.T) {
		err := repo.UpdateStage(ctx, cycle.ID, models.StageGermination, models.StageVegetative, history)
		assert.ErrorIs(t, err, ErrStageConflict)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		err := repo.UpdateStage(ctx, "nope", models.StageGermination, models.StageVegetative, history)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryCycleRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCycleRepository()

	a := testCycle("mod-a")
	require.NoError(t, repo.Create(ctx, a))
	b := testCycle("mod-b")
	b.OrganizationID = "org-2"
	require.NoError(t, repo.Create(ctx, b))
	done := testCycle("mod-c")
	done.Status = models.CycleCompleted
	require.NoError(t, repo.Create(ctx, done))

	t.Run("filter by module", func(t *testing.T) {
		got, err := repo.List(ctx, CycleFilter{ModuleID: "mod-a"}, 20, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
	})

	t.Run("filter by organization", func(t *testing.T) {
		got, err := repo.List(ctx, CycleFilter{OrganizationID: "org-2"}, 20, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		got, err := repo.List(ctx, CycleFilter{Status: models.CycleCompleted}, 20, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, done.ID, got[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := repo.List(ctx, CycleFilter{}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		rest, err := repo.List(ctx, CycleFilter{}, 2, 2)
		require.NoError(t, err)
		assert.Len(t, rest, 1)

		past, err := repo.List(ctx, CycleFilter{}, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, past)
	})
}

func TestMemoryDeviceStateRepository(t *testing.T) {
	ctx := context.Background()

	entry := func(cycleID string, pin int, role models.ActuatorRole) models.ScheduleEntry {
		return models.ScheduleEntry{
			ScheduleID: models.ScheduleEntryID(cycleID, role),
			Pin:        pin,
			Enabled:    true,
			ManagedBy:  models.ScheduleManagedBy,
			CycleID:    cycleID,
		}
	}

	t.Run("put creates document and removes sweep all pins", func(t *testing.T) {
		repo := NewMemoryDeviceStateRepository()

		err := repo.PutSchedules(ctx, "mod-1", []models.ScheduleEntry{
			entry("cyc-1", 1, models.RolePump),
			entry("cyc-1", 2, models.RoleLight),
			entry("cyc-2", 1, models.RoleFan),
		})
		require.NoError(t, err)

		removed, err := repo.RemoveCycleSchedules(ctx, "mod-1", "cyc-1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		state, err := repo.Get(ctx, "mod-1")
		require.NoError(t, err)
		assert.Len(t, state.Pins["1"].Schedules, 1) // cyc-2's entry survives
		assert.Empty(t, state.Pins["2"].Schedules)
	})

	t.Run("removal ignores unmanaged entries", func(t *testing.T) {
		repo := NewMemoryDeviceStateRepository()
		repo.Seed(&models.DeviceState{
			ModuleID: "mod-1",
			Pins: map[string]models.PinState{
				"1": {Schedules: map[string]models.ScheduleEntry{
					"manual_watering": {ScheduleID: "manual_watering", Pin: 1, ManagedBy: "user"},
				}},
			},
		})

		removed, err := repo.RemoveCycleSchedules(ctx, "mod-1", "cyc-1")
		require.NoError(t, err)
		assert.Zero(t, removed)

		state, err := repo.Get(ctx, "mod-1")
		require.NoError(t, err)
		assert.Contains(t, state.Pins["1"].Schedules, "manual_watering")
	})

	t.Run("missing device is a no-op for bulk operations", func(t *testing.T) {
		repo := NewMemoryDeviceStateRepository()

		removed, err := repo.RemoveCycleSchedules(ctx, "ghost", "cyc-1")
		require.NoError(t, err)
		assert.Zero(t, removed)

		affected, err := repo.SetCycleSchedulesEnabled(ctx, "ghost", "cyc-1", false)
		require.NoError(t, err)
		assert.Zero(t, affected)

		_, err = repo.Get(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("toggle enabled only touches the cycle's entries", func(t *testing.T) {
		repo := NewMemoryDeviceStateRepository()
		require.NoError(t, repo.PutSchedules(ctx, "mod-1", []models.ScheduleEntry{
			entry("cyc-1", 1, models.RolePump),
			entry("cyc-2", 1, models.RoleFan),
		}))

		affected, err := repo.SetCycleSchedulesEnabled(ctx, "mod-1", "cyc-1", false)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		state, err := repo.Get(ctx, "mod-1")
		require.NoError(t, err)
		assert.False(t, state.Pins["1"].Schedules["cycle_cyc-1_pump"].Enabled)
		assert.True(t, state.Pins["1"].Schedules["cycle_cyc-2_fan"].Enabled)
	})
}

func TestMemoryProgramRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProgramRepository()

	program := models.NewGrowProgram("Basil", "basil", 20, []models.GrowStage{
		{Type: models.StageGermination, Name: "Germination", DayStart: 1, DayEnd: 20},
	})
	require.NoError(t, repo.Create(ctx, program))

	got, err := repo.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, "Basil", got.Name)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
