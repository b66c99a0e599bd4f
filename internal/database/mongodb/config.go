// Package mongodb provides MongoDB connectivity for the grow cycle engine's
// document store.
package mongodb

import (
	"fmt"
	"time"
)

// Config holds MongoDB connection configuration.
type Config struct {
	// URI is the MongoDB connection string (e.g., mongodb://localhost:27017)
	URI string `yaml:"uri"`

	// Database is the name of the database to connect to
	Database string `yaml:"database"`

	// MinPoolSize is the minimum number of connections in the pool
	MinPoolSize uint64 `yaml:"min_pool_size"`

	// MaxPoolSize is the maximum number of connections in the pool
	MaxPoolSize uint64 `yaml:"max_pool_size"`

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ServerSelectionTimeout is the timeout for server selection
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`

	// RetryWrites enables retryable writes
	RetryWrites bool `yaml:"retry_writes"`

	// MaxConnectAttempts bounds connection retries on startup
	MaxConnectAttempts int `yaml:"max_connect_attempts"`

	// ConnectBackoff is the base backoff between connection attempts
	ConnectBackoff time.Duration `yaml:"connect_backoff"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "growhub",
		MinPoolSize:            5,
		MaxPoolSize:            50,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		RetryWrites:            true,
		MaxConnectAttempts:     3,
		ConnectBackoff:         200 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("mongodb: URI is required")
	}
	if c.Database == "" {
		return fmt.Errorf("mongodb: database name is required")
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("mongodb: MinPoolSize (%d) exceeds MaxPoolSize (%d)", c.MinPoolSize, c.MaxPoolSize)
	}
	if c.MaxConnectAttempts < 1 {
		return fmt.Errorf("mongodb: MaxConnectAttempts must be at least 1")
	}
	return nil
}
