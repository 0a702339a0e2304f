// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Source kinds for the raw datasets.
const (
	SourceCSV       = "csv"
	SourceSnowflake = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Raw input source
	Source    string // "csv" or "snowflake"
	RawDir    string // Directory holding customers.csv, products.csv, sales.csv
	Snowflake *SnowflakeConfig

	// Output
	OutDir    string // Directory the star schema is written to
	FactParts int    // Number of part files for fact_sales

	// ProcessingDate is the injected "current date" used to reject future
	// sale dates. Zero means the entry point fills in today's date; tests
	// and re-runs pin it for determinism.
	ProcessingDate time.Time

	// WorkerPoolSize bounds the goroutines used for row-independent work.
	// 0 means a single worker.
	WorkerPoolSize int

	// Cleaning audit store (optional; empty URL disables it)
	AuditDatabaseURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is honoured when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Source:           getEnv("RAW_SOURCE", SourceCSV),
		RawDir:           getEnv("RAW_DIR", "data/raw"),
		OutDir:           getEnv("OUT_DIR", "data/processed"),
		FactParts:        getEnvAsInt("FACT_PARTS", 4),
		WorkerPoolSize:   getEnvAsInt("WORKER_POOL_SIZE", 0),
		AuditDatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}

	if raw := getEnv("PROCESSING_DATE", ""); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PROCESSING_DATE %q (want YYYY-MM-DD): %w", raw, err)
		}
		cfg.ProcessingDate = date
	}

	if cfg.Source == SourceSnowflake {
		snowCfg, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowCfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.RawDir == "" {
			return errors.New("raw input directory is required for the csv source")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required for the snowflake source")
		}
	default:
		return fmt.Errorf("unknown raw source %q", c.Source)
	}

	if c.OutDir == "" {
		return errors.New("output directory is required")
	}

	if c.FactParts <= 0 {
		return errors.New("fact part count must be positive")
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
