// Package queue wraps the Asynq client, server and scheduler used to drive
// periodic grow cycle evaluation.
package queue

import "time"

// Queue names by priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Config holds queue configuration.
type Config struct {
	// Redis connection
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Concurrency is the number of concurrent task workers.
	Concurrency int `yaml:"concurrency"`

	// Queues maps queue name to priority weight.
	Queues map[string]int `yaml:"queues"`

	// ShutdownTimeout bounds graceful worker shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RedisAddr:       "localhost:6379",
		Concurrency:     10,
		Queues:          map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1},
		ShutdownTimeout: 30 * time.Second,
	}
}
