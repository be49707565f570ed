// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for runs.db (always absolute)
	LogLevel          string
	Port              int
	DevMode           bool
	DefaultPartitions int // Midpoint-rule resolution when a request omits it
	Workers           int // Sampler goroutines per run
	RetentionDays     int // Runs older than this are pruned; 0 disables pruning
	CleanupSchedule   string
	Archive           *ArchiveConfig
}

// ArchiveConfig holds S3-compatible (AWS S3 or Cloudflare R2) archive settings
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string // Empty for AWS; https://<account>.r2.cloudflarestorage.com for R2
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Schedule        string
	BatchSize       int
}

// Enabled reports whether runs should be archived at all.
func (a *ArchiveConfig) Enabled() bool {
	return a != nil && a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CELRISK_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("GO_PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultPartitions: getEnvAsInt("CELRISK_DEFAULT_PARTITIONS", 100000),
		Workers:           getEnvAsInt("CELRISK_WORKERS", runtime.NumCPU()),
		RetentionDays:     getEnvAsInt("CELRISK_RETENTION_DAYS", 30),
		CleanupSchedule:   getEnv("CELRISK_CLEANUP_SCHEDULE", "@daily"),
		Archive:           loadArchiveConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Bucket:          getEnv("CELRISK_ARCHIVE_BUCKET", ""),
		Endpoint:        getEnv("CELRISK_ARCHIVE_ENDPOINT", ""),
		Region:          getEnv("CELRISK_ARCHIVE_REGION", "auto"),
		AccessKeyID:     getEnv("CELRISK_ARCHIVE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("CELRISK_ARCHIVE_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("CELRISK_ARCHIVE_PREFIX", "celrisk/runs"),
		Schedule:        getEnv("CELRISK_ARCHIVE_SCHEDULE", "@hourly"),
		BatchSize:       getEnvAsInt("CELRISK_ARCHIVE_BATCH_SIZE", 100),
	}
}

// RunsDBPath returns the location of the run store.
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DefaultPartitions <= 0 {
		return fmt.Errorf("CELRISK_DEFAULT_PARTITIONS must be positive, got %d", c.DefaultPartitions)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("CELRISK_WORKERS must be positive, got %d", c.Workers)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("CELRISK_RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid CELRISK_CLEANUP_SCHEDULE %q: %w", c.CleanupSchedule, err)
	}

	if c.Archive.Enabled() {
		if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
			return fmt.Errorf("CELRISK_ARCHIVE_ACCESS_KEY_ID and CELRISK_ARCHIVE_SECRET_ACCESS_KEY must be set together")
		}
		if c.Archive.BatchSize <= 0 {
			return fmt.Errorf("CELRISK_ARCHIVE_BATCH_SIZE must be positive, got %d", c.Archive.BatchSize)
		}
		if _, err := cron.ParseStandard(c.Archive.Schedule); err != nil {
			return fmt.Errorf("invalid CELRISK_ARCHIVE_SCHEDULE %q: %w", c.Archive.Schedule, err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
