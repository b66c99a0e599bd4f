package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "fake", Type: task.Type()}, nil
}

type taskFixture struct {
	cycles  *repository.MemoryCycleRepository
	devices *repository.MemoryDeviceStateRepository
	engine  *growcycle.Engine
}

func newTaskFixture() *taskFixture {
	cycles := repository.NewMemoryCycleRepository()
	devices := repository.NewMemoryDeviceStateRepository()
	return &taskFixture{
		cycles:  cycles,
		devices: devices,
		engine:  growcycle.NewEngine(cycles, devices),
	}
}

func taskProgram() *models.GrowProgram {
	return &models.GrowProgram{
		ID:        "prog-basil",
		Name:      "Basil 14",
		CropType:  "basil",
		TotalDays: 14,
		Stages: []models.GrowStage{
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
		},
	}
}

func startCycle(t *testing.T, f *taskFixture, moduleID string) *models.GrowCycle {
	t.Helper()
	cycle, err := f.engine.Start(context.Background(), taskProgram(), moduleID, "org-1", models.PinBindings{models.RolePump: 1})
	require.NoError(t, err)
	return cycle
}

func TestSweepHandlerFanOut(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	first := startCycle(t, f, "module-1")
	second := startCycle(t, f, "module-2")
	finished := startCycle(t, f, "module-3")
	_, err := f.engine.Abort(ctx, finished.ID)
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	handler := NewSweepHandler(f.cycles, enqueuer, nil)

	require.NoError(t, handler.ProcessTask(ctx, NewSweepTask()))
	require.Len(t, enqueuer.tasks, 2)

	enqueued := make(map[string]bool)
	for _, task := range enqueuer.tasks {
		assert.Equal(t, TypeCycleEvaluate, task.Type())

		var payload EvaluatePayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		enqueued[payload.CycleID] = true
	}
	assert.True(t, enqueued[first.ID])
	assert.True(t, enqueued[second.ID])
	assert.False(t, enqueued[finished.ID])
}

func TestSweepHandlerDuplicatesTolerated(t *testing.T) {
	f := newTaskFixture()
	startCycle(t, f, "module-1")

	enqueuer := &fakeEnqueuer{err: asynq.ErrDuplicateTask}
	handler := NewSweepHandler(f.cycles, enqueuer, nil)

	assert.NoError(t, handler.ProcessTask(context.Background(), NewSweepTask()))
}

func TestEvaluateHandler(t *testing.T) {
	t.Run("active cycle evaluates cleanly", func(t *testing.T) {
		f := newTaskFixture()
		cycle := startCycle(t, f, "module-1")
		handler := NewEvaluateHandler(f.engine, f.cycles, nil)

		task, _, err := NewEvaluateTask(cycle.ID)
		require.NoError(t, err)

		assert.NoError(t, handler.ProcessTask(context.Background(), task))
	})

	t.Run("missing cycle is dropped without retry", func(t *testing.T) {
		f := newTaskFixture()
		handler := NewEvaluateHandler(f.engine, f.cycles, nil)

		task, _, err := NewEvaluateTask("no-such-cycle")
		require.NoError(t, err)

		assert.NoError(t, handler.ProcessTask(context.Background(), task))
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		f := newTaskFixture()
		handler := NewEvaluateHandler(f.engine, f.cycles, nil)

		task := asynq.NewTask(TypeCycleEvaluate, []byte("{not json"))
		assert.Error(t, handler.ProcessTask(context.Background(), task))
	})
}

func TestNewEvaluateTaskPayload(t *testing.T) {
	task, opts, err := NewEvaluateTask("cyc-42")
	require.NoError(t, err)
	assert.Equal(t, TypeCycleEvaluate, task.Type())
	assert.NotEmpty(t, opts)

	var payload EvaluatePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "cyc-42", payload.CycleID)
}
