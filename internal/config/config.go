package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Sentra server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// JobsConfig controls the background job orchestrator.
type JobsConfig struct {
	// MaxConcurrent caps jobs in the pending or running state. Submissions
	// past the cap are rejected, not queued.
	MaxConcurrent int
	// Registry selects where live progress and cancellation flags are kept:
	// "memory" for single-process deployments, "redis" for multi-instance.
	Registry string
	// StatusCacheTTL bounds how long job status snapshots live in the cache.
	StatusCacheTTL time.Duration
	// ProbeTimeout is the per-port timeout for network scan probes.
	ProbeTimeout time.Duration
}

var validRegistries = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SENTRA_PORT", 8080),
			Env:  envString("SENTRA_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Jobs: JobsConfig{
			MaxConcurrent:  envInt("SENTRA_MAX_CONCURRENT_JOBS", 3),
			Registry:       envString("SENTRA_JOB_REGISTRY", "memory"),
			StatusCacheTTL: envDuration("SENTRA_JOB_STATUS_CACHE_TTL", 30*time.Minute),
			ProbeTimeout:   envDuration("SENTRA_PROBE_TIMEOUT", 3*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Jobs.MaxConcurrent < 1 {
		return fmt.Errorf("SENTRA_MAX_CONCURRENT_JOBS must be at least 1, got %d", c.Jobs.MaxConcurrent)
	}

	if !validRegistries[c.Jobs.Registry] {
		return fmt.Errorf("SENTRA_JOB_REGISTRY must be one of memory, redis; got %q", c.Jobs.Registry)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
