package growcycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/database/models"
)

// clock is a settable time source for day simulation.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advanceDays(d int) { c.now = c.now.Add(time.Duration(d) * 24 * time.Hour) }

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T) (*engineFixture, *clock, *models.GrowCycle) {
		t.Helper()
		clk := &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
		f := newEngineFixture(t, WithClock(clk.Now))
		cycle, err := f.engine.Start(ctx, testProgram(), "mod-1", "org-1", testBindings())
		require.NoError(t, err)
		return f, clk, cycle
	}

	t.Run("same stage is a no-op", func(t *testing.T) {
		f, clk, cycle := start(t)
		clk.advanceDays(2) // day 3, still germination

		transitioned, err := f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.Equal(t, 3, cycle.CurrentDay)
		assert.Equal(t, models.StageGermination, cycle.CurrentStage)
	})

	t.Run("day past stage boundary transitions", func(t *testing.T) {
		f, clk, cycle := start(t)
		clk.advanceDays(8) // day 9, vegetative

		transitioned, err := f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.Equal(t, models.StageVegetative, cycle.CurrentStage)

		stored, err := f.cycles.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageVegetative, stored.CurrentStage)
		assert.Equal(t, 9, stored.CurrentDay)

		// Old stage's entries retracted, new stage's written.
		// Vegetative has pump, fan and lighting.
		assert.Equal(t, 3, f.cycleScheduleCount(t, "mod-1", cycle.ID))

		// History: germination closed, vegetative open.
		require.Len(t, stored.StageHistory, 2)
		assert.NotNil(t, stored.StageHistory[0].CompletedAt)
		assert.Nil(t, stored.StageHistory[1].CompletedAt)
	})

	t.Run("skipped evaluations land on the right stage", func(t *testing.T) {
		f, clk, cycle := start(t)
		clk.advanceDays(23) // day 24, flowering; vegetative never evaluated

		transitioned, err := f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.Equal(t, models.StageFlowering, cycle.CurrentStage)
	})

	t.Run("past final stage awaits harvest without completing", func(t *testing.T) {
		f, clk, cycle := start(t)
		clk.advanceDays(34) // day 35, past the 30-day program

		transitioned, err := f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)
		assert.False(t, transitioned)

		stored, err := f.cycles.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CycleActive, stored.Status)
		assert.True(t, stored.AwaitingHarvest)
		assert.Equal(t, 35, stored.CurrentDay)

		// Flag is written once; a second evaluation changes nothing.
		before := stored.UpdatedAt
		_, err = f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)
		after, err := f.cycles.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after.UpdatedAt)
	})

	t.Run("paused cycle is skipped", func(t *testing.T) {
		f, clk, cycle := start(t)
		_, err := f.engine.Pause(ctx, cycle.ID)
		require.NoError(t, err)
		clk.advanceDays(10)

		paused, err := f.cycles.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		transitioned, err := f.engine.Evaluate(ctx, paused)
		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.Equal(t, models.StageGermination, paused.CurrentStage)
	})

	t.Run("lost stage race is benign", func(t *testing.T) {
		f, clk, cycle := start(t)
		clk.advanceDays(8)

		// Simulate another evaluator having already advanced the stage.
		stale := cloneForRace(cycle)
		_, err := f.engine.Evaluate(ctx, cycle)
		require.NoError(t, err)

		transitioned, err := f.engine.Evaluate(ctx, stale)
		require.NoError(t, err)
		assert.False(t, transitioned)
	})

	t.Run("full cycle walkthrough keeps history consistent", func(t *testing.T) {
		f, clk, cycle := start(t)

		for day := 2; day <= 31; day++ {
			clk.advanceDays(1)
			_, err := f.engine.Evaluate(ctx, cycle)
			require.NoError(t, err)
		}

		stored, err := f.cycles.GetByID(ctx, cycle.ID)
		require.NoError(t, err)
		require.Len(t, stored.StageHistory, 3)
		for i, entry := range stored.StageHistory[:2] {
			assert.NotNil(t, entry.CompletedAt, "history entry %d should be closed", i)
		}
		assert.Nil(t, stored.StageHistory[2].CompletedAt)
		assert.True(t, stored.AwaitingHarvest)
		assert.Equal(t, models.CycleActive, stored.Status)

		// Daily log covers every evaluated in-range day exactly once.
		seen := map[int]bool{}
		for _, entry := range stored.DailyLog {
			assert.False(t, seen[entry.Day], "duplicate daily log for day %d", entry.Day)
			seen[entry.Day] = true
		}
		assert.True(t, seen[1])
		assert.True(t, seen[30])
	})
}

// cloneForRace copies the cycle as a second evaluator would have loaded it.
func cloneForRace(c *models.GrowCycle) *models.GrowCycle {
	cp := *c
	cp.StageHistory = append([]models.StageHistoryEntry(nil), c.StageHistory...)
	cp.Stages = append([]models.GrowStage(nil), c.Stages...)
	return &cp
}

func TestCurrentDay(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at start", start, 1},
		{"later same day", start.Add(23 * time.Hour), 1},
		{"exactly 24h", start.Add(24 * time.Hour), 2},
		{"mid second day", start.Add(36 * time.Hour), 2},
		{"day nine", start.Add(8 * 24 * time.Hour), 9},
		{"clock skew before start", start.Add(-time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentDay(start, tt.now))
		})
	}
}
