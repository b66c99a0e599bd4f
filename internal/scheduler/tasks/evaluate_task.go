package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
	"github.com/growhub/growhub/internal/scheduler/queue"
)

// sweepPageSize bounds how many active cycles one sweep lists per page.
const sweepPageSize = 200

// EvaluatePayload identifies the cycle an evaluation task targets.
type EvaluatePayload struct {
	CycleID string `json:"cycle_id"`
}

// NewEvaluateTask builds an evaluation task for one cycle. Uniqueness keyed
// on the payload prevents overlapping sweeps from double-enqueueing the same
// cycle.
func NewEvaluateTask(cycleID string) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(EvaluatePayload{CycleID: cycleID})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal evaluate payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(queue.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Unique(time.Minute),
	}
	return asynq.NewTask(TypeCycleEvaluate, payload), opts, nil
}

// NewSweepTask builds the recurring sweep task.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeCycleSweep, nil)
}

// Enqueuer enqueues follow-up tasks. Satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SweepHandler fans one sweep tick out into per-cycle evaluation tasks.
type SweepHandler struct {
	cycles   repository.CycleRepo
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewSweepHandler creates a sweep handler.
func NewSweepHandler(cycles repository.CycleRepo, enqueuer Enqueuer, logger *slog.Logger) *SweepHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepHandler{
		cycles:   cycles,
		enqueuer: enqueuer,
		logger:   logger.With(slog.String("component", "cycle_sweep")),
	}
}

// ProcessTask lists active cycles and enqueues an evaluation task for each.
// Enqueue failures are logged and skipped; the next sweep retries naturally.
func (h *SweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	enqueued := 0
	for offset := 0; ; offset += sweepPageSize {
		page, err := h.cycles.List(ctx, repository.CycleFilter{Status: models.CycleActive}, sweepPageSize, offset)
		if err != nil {
			return fmt.Errorf("list active cycles: %w", err)
		}

		for _, cycle := range page {
			task, opts, err := NewEvaluateTask(cycle.ID)
			if err != nil {
				h.logger.Error("build evaluate task",
					slog.String("cycle_id", cycle.ID),
					slog.String("error", err.Error()))
				continue
			}
			if _, err := h.enqueuer.EnqueueContext(ctx, task, opts...); err != nil {
				if errors.Is(err, asynq.ErrDuplicateTask) {
					continue
				}
				h.logger.Error("enqueue evaluate task",
					slog.String("cycle_id", cycle.ID),
					slog.String("error", err.Error()))
				continue
			}
			enqueued++
		}

		if len(page) < sweepPageSize {
			break
		}
	}

	h.logger.Debug("sweep complete", slog.Int("enqueued", enqueued))
	return nil
}

// EvaluateHandler runs the engine's evaluation for one cycle.
type EvaluateHandler struct {
	engine *growcycle.Engine
	cycles repository.CycleRepo
	logger *slog.Logger
}

// NewEvaluateHandler creates an evaluation handler.
func NewEvaluateHandler(engine *growcycle.Engine, cycles repository.CycleRepo, logger *slog.Logger) *EvaluateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateHandler{
		engine: engine,
		cycles: cycles,
		logger: logger.With(slog.String("component", "cycle_evaluate")),
	}
}

// ProcessTask evaluates one cycle. A cycle deleted or finished since the
// sweep is a no-op; transient store failures are returned so asynq retries
// with backoff, and the next sweep tick retries regardless.
func (h *EvaluateHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload EvaluatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal evaluate payload: %w", err)
	}

	cycle, err := h.cycles.GetByID(ctx, payload.CycleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load cycle %s: %w", payload.CycleID, err)
	}

	transitioned, err := h.engine.Evaluate(ctx, cycle)
	if err != nil {
		h.logger.Error("cycle evaluation failed",
			slog.String("cycle_id", cycle.ID),
			slog.String("error", err.Error()))
		return err
	}
	if transitioned {
		h.logger.Info("cycle transitioned",
			slog.String("cycle_id", cycle.ID),
			slog.String("stage", string(cycle.CurrentStage)))
	}
	return nil
}
