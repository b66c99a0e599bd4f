package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
)

// Manager owns the Asynq client, server and cron scheduler.
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewManager creates a queue manager over the given redis connection.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "queue"))

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      cfg.Queues,
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			delay := time.Duration(1<<uint(n)) * time.Second
			if delay > 10*time.Minute {
				delay = 10 * time.Minute
			}
			return delay
		},
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	return &Manager{
		client:    asynq.NewClient(redisOpt),
		server:    server,
		scheduler: asynq.NewScheduler(redisOpt, nil),
		mux:       asynq.NewServeMux(),
		logger:    logger,
	}
}

// HandleFunc registers a task handler for the given task type.
func (m *Manager) HandleFunc(taskType string, handler func(context.Context, *asynq.Task) error) {
	m.mux.HandleFunc(taskType, handler)
}

// Enqueue enqueues a task for immediate processing.
func (m *Manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if _, err := m.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// RegisterRecurring registers a task to run on a cron cadence.
func (m *Manager) RegisterRecurring(cronSpec string, task *asynq.Task, opts ...asynq.Option) (string, error) {
	id, err := m.scheduler.Register(cronSpec, task, opts...)
	if err != nil {
		return "", fmt.Errorf("register recurring %s: %w", task.Type(), err)
	}
	return id, nil
}

// Client returns the underlying Asynq client for handlers that enqueue
// follow-up tasks.
func (m *Manager) Client() *asynq.Client {
	return m.client
}

// Start runs the scheduler and the task server.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	go func() {
		if err := m.scheduler.Run(); err != nil {
			m.logger.Error("scheduler stopped", slog.String("error", err.Error()))
		}
	}()
	go func() {
		if err := m.server.Run(m.mux); err != nil {
			m.logger.Error("task server stopped", slog.String("error", err.Error()))
		}
	}()

	m.running = true
	return nil
}

// Stop gracefully stops the scheduler, server and client.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.scheduler.Shutdown()
	m.server.Shutdown()

	if err := m.client.Close(); err != nil {
		return fmt.Errorf("close queue client: %w", err)
	}

	m.running = false
	return nil
}
