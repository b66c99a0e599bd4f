// Package config loads the application configuration from a YAML file with
// environment variable overrides. Subsystem sections reuse the config types
// of the packages they configure, so defaults live next to the code they
// apply to.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/growhub/growhub/internal/auth"
	"github.com/growhub/growhub/internal/database/mongodb"
	"github.com/growhub/growhub/internal/scheduler/queue"
	"github.com/growhub/growhub/pkg/logging"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	MongoDB mongodb.Config `yaml:"mongodb"`
	Queue   queue.Config   `yaml:"queue"`
	Logging logging.Config `yaml:"logging"`
	Auth    auth.Config    `yaml:"auth"`
}

// Default returns the configuration used when no file or overrides are set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		MongoDB: mongodb.DefaultConfig(),
		Queue:   queue.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Auth:    auth.Config{Disabled: true},
	}
}

// Load reads configuration from the given YAML file, then applies
// environment overrides. An empty path skips the file and uses defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables. Only the knobs
// that differ per deployment environment are exposed this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("GROWHUB_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("GROWHUB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GROWHUB_MONGODB_URI"); v != "" {
		c.MongoDB.URI = v
	}
	if v := os.Getenv("GROWHUB_MONGODB_DATABASE"); v != "" {
		c.MongoDB.Database = v
	}
	if v := os.Getenv("GROWHUB_REDIS_ADDR"); v != "" {
		c.Queue.RedisAddr = v
	}
	if v := os.Getenv("GROWHUB_REDIS_PASSWORD"); v != "" {
		c.Queue.RedisPassword = v
	}
	if v := os.Getenv("GROWHUB_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
		c.Auth.Disabled = false
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := c.MongoDB.Validate(); err != nil {
		return fmt.Errorf("mongodb config: %w", err)
	}
	if !c.Auth.Disabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth enabled but no secret configured")
	}
	return nil
}
