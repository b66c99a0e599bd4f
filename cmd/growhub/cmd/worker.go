package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/growhub/growhub/internal/config"
	"github.com/growhub/growhub/internal/database/mongodb"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
	"github.com/growhub/growhub/internal/scheduler/queue"
	"github.com/growhub/growhub/internal/scheduler/tasks"
	"github.com/growhub/growhub/pkg/logging"
	"github.com/growhub/growhub/pkg/metrics"
)

// newWorkerCmd creates the worker command.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the background worker",
		Long: `Start the growhub background worker.

The worker runs the durable stage scheduler: a recurring sweep lists
active grow cycles and fans out one evaluation task per cycle, and the
evaluation handler advances each cycle's stage as days elapse. Running
the worker separately from the API server lets either be scaled or
restarted without affecting the other.`,
		Example: `  growhub worker
  growhub worker --config /etc/growhub/config.yaml`,
		RunE: runWorker,
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log := logging.New(cfg.Logging)
	log.SetDefault()
	logger := log.WithComponent("worker").Logger

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	mongoClient, err := mongodb.New(ctx, cfg.MongoDB, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("mongodb connection failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Close(shutdownCtx)
	}()

	cycles := repository.NewMongoCycleRepository(mongoClient, logger)
	devices := repository.NewMongoDeviceStateRepository(mongoClient, logger)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.RedisAddr,
		Password: cfg.Queue.RedisPassword,
		DB:       cfg.Queue.RedisDB,
	})
	defer redisClient.Close()

	registry := metrics.NewRegistry()
	engine := growcycle.NewEngine(cycles, devices,
		growcycle.WithLocker(growcycle.NewRedisLocker(redisClient)),
		growcycle.WithLogger(logger),
		growcycle.WithMetrics(registry),
	)

	manager := queue.NewManager(cfg.Queue, logger)

	sweep := tasks.NewSweepHandler(cycles, manager.Client(), logger)
	evaluate := tasks.NewEvaluateHandler(engine, cycles, logger)
	manager.HandleFunc(tasks.TypeCycleSweep, sweep.ProcessTask)
	manager.HandleFunc(tasks.TypeCycleEvaluate, evaluate.ProcessTask)

	if _, err := manager.RegisterRecurring(tasks.SweepCronSpec, tasks.NewSweepTask()); err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}

	if err := manager.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	logger.Info("worker started",
		"redis", cfg.Queue.RedisAddr,
		"sweep", tasks.SweepCronSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	if err := manager.Stop(); err != nil {
		return fmt.Errorf("stop worker: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
