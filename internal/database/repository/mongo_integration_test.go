package repository_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/mongodb"
	"github.com/growhub/growhub/internal/database/repository"
)

// newMongoCycleRepo spins up a containerized MongoDB and returns a cycle
// repository with its indexes in place. Skipped in short mode because it
// pulls a Docker image.
func newMongoCycleRepo(t *testing.T) *repository.MongoCycleRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}

	client := mongodb.SetupTestClient(t, "growhub_test")
	repo := repository.NewMongoCycleRepository(client, slog.Default())
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func integrationProgram() *models.GrowProgram {
	return models.NewGrowProgram("Lettuce 14", "lettuce", 14, []models.GrowStage{
		{
			Type:     models.StageGermination,
			Name:     "Germination",
			DayStart: 1,
			DayEnd:   5,
			Schedules: []models.ScheduleRule{
				{TargetRole: models.RolePump, DurationSeconds: 60, FrequencySeconds: 3600},
			},
		},
		{
			Type:     models.StageVegetative,
			Name:     "Vegetative",
			DayStart: 6,
			DayEnd:   14,
			Schedules: []models.ScheduleRule{
				{TargetRole: models.RolePump, DurationSeconds: 120, FrequencySeconds: 1800},
			},
		},
	})
}

func newIntegrationCycle(moduleID string) *models.GrowCycle {
	return models.NewGrowCycle(integrationProgram(), moduleID, "org-1",
		models.PinBindings{models.RolePump: 1}, time.Now().UTC())
}

func TestMongoCycleRepositoryUniqueActiveIndex(t *testing.T) {
	repo := newMongoCycleRepo(t)
	ctx := context.Background()

	first := newIntegrationCycle("module-1")
	require.NoError(t, repo.Create(ctx, first))

	// The partial unique index rejects a second active cycle on the module.
	second := newIntegrationCycle("module-1")
	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, repository.ErrActiveCycleExists)

	// Other modules are unaffected.
	require.NoError(t, repo.Create(ctx, newIntegrationCycle("module-2")))

	// A terminal cycle frees the module for a fresh start.
	first.Status = models.CycleCompleted
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Create(ctx, newIntegrationCycle("module-1")))
}

func TestMongoCycleRepositoryUpdateStageCAS(t *testing.T) {
	repo := newMongoCycleRepo(t)
	ctx := context.Background()

	cycle := newIntegrationCycle("module-1")
	require.NoError(t, repo.Create(ctx, cycle))

	history := append([]models.StageHistoryEntry(nil), cycle.StageHistory...)
	history = append(history, models.StageHistoryEntry{
		Stage:     models.StageVegetative,
		StageName: "Vegetative",
		StartedAt: time.Now().UTC(),
	})

	err := repo.UpdateStage(ctx, cycle.ID, models.StageGermination, models.StageVegetative, history)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageVegetative, got.CurrentStage)
	assert.Len(t, got.StageHistory, 2)

	// A stale writer whose expected stage no longer matches loses the race.
	err = repo.UpdateStage(ctx, cycle.ID, models.StageGermination, models.StageFlowering, history)
	assert.ErrorIs(t, err, repository.ErrStageConflict)

	err = repo.UpdateStage(ctx, "no-such-cycle", models.StageGermination, models.StageVegetative, history)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoCycleRepositoryFindActiveByModule(t *testing.T) {
	repo := newMongoCycleRepo(t)
	ctx := context.Background()

	cycle := newIntegrationCycle("module-1")
	require.NoError(t, repo.Create(ctx, cycle))

	got, err := repo.FindActiveByModule(ctx, "module-1")
	require.NoError(t, err)
	assert.Equal(t, cycle.ID, got.ID)

	_, err = repo.FindActiveByModule(ctx, "module-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
