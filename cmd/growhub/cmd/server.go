package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/growhub/growhub/internal/api"
	"github.com/growhub/growhub/internal/api/handlers"
	"github.com/growhub/growhub/internal/auth"
	"github.com/growhub/growhub/internal/config"
	"github.com/growhub/growhub/internal/database/mongodb"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
	"github.com/growhub/growhub/pkg/logging"
	"github.com/growhub/growhub/pkg/metrics"
)

var (
	// serverPort overrides the configured listen port when set
	serverPort int
	// serverHost overrides the configured bind host when set
	serverHost string
)

// newServerCmd creates the server command.
func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API server",
		Long: `Start the growhub HTTP API server.

The server provides REST endpoints for managing grow programs, grow
cycles, and module actuator state. Stage progression itself runs in the
worker process; the server only exposes a manual evaluate endpoint.`,
		Example: `  growhub server
  growhub server --port 3000
  growhub server --config /etc/growhub/config.yaml`,
		RunE: runServer,
	}

	cmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().StringVar(&serverHost, "host", "", "host to bind to (overrides config)")

	return cmd
}

// healthCheck adapts a ping function to the handler's HealthChecker.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func (c healthCheck) Name() string { return c.name }

func (c healthCheck) Check(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	return c.check(ctx)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log := logging.New(cfg.Logging)
	log.SetDefault()
	logger := log.WithComponent("server").Logger

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
	repos := &repository.Repositories{
		Programs: repository.NewMongoProgramRepository(mongoClient, logger),
		Cycles:   cycles,
		Devices:  devices,
	}

	idxCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	err = cycles.EnsureIndexes(idxCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ensure indexes failed: %w", err)
	}

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

	handler := handlers.NewHandlerFromRepositories(repos, engine)
	handler.SetHealthCheckers(
		healthCheck{name: "mongodb", check: mongoClient.Ping},
		healthCheck{name: "redis", check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)

	router := api.NewRouterWithConfig(handler, api.RouterConfig{
		AuthMiddleware: auth.NewMiddleware(auth.NewValidator(cfg.Auth, logger)),
		Metrics:        registry,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := api.NewServer(router, cfg.Server)

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}

		close(done)
	}()

	logger.Info("server listening", "addr", server.Addr())
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("server stopped")
	return nil
}
