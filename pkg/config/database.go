// pkg/config/database.go
package config

import (
	"errors"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds the connection parameters for the optional
// Snowflake raw-input source.
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Schema        string
	Role          string
	Authenticator gosnowflake.AuthType

	// Query timeout
	QueryTimeout time.Duration
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	user := getEnv("SNOWFLAKE_USER", "")
	if user == "" {
		return nil, errors.New("SNOWFLAKE_USER environment variable is required")
	}

	password := getEnv("SNOWFLAKE_PASSWORD", "")
	if password == "" {
		return nil, errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	account := getEnv("SNOWFLAKE_ACCOUNT", "")
	if account == "" {
		return nil, errors.New("SNOWFLAKE_ACCOUNT environment variable is required")
	}

	warehouse := getEnv("SNOWFLAKE_WAREHOUSE", "")
	if warehouse == "" {
		return nil, errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
	}

	// Convert authenticator string to proper type
	var authenticator gosnowflake.AuthType
	switch getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake") {
	case "oauth":
		authenticator = gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		authenticator = gosnowflake.AuthTypeExternalBrowser
	case "jwt":
		authenticator = gosnowflake.AuthTypeJwt
	default:
		authenticator = gosnowflake.AuthTypeSnowflake
	}

	cfg := &SnowflakeConfig{
		User:          user,
		Password:      password,
		Account:       account,
		Warehouse:     warehouse,
		Database:      getEnv("SNOWFLAKE_DATABASE", "SALES_STAGING"),
		Schema:        getEnv("SNOWFLAKE_SCHEMA", "RAW"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: authenticator,

		QueryTimeout: time.Duration(getEnvAsInt("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// DSN returns a Snowflake connection string for database/sql
func (c *SnowflakeConfig) DSN() (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		User:          c.User,
		Password:      c.Password,
		Account:       c.Account,
		Warehouse:     c.Warehouse,
		Database:      c.Database,
		Schema:        c.Schema,
		Role:          c.Role,
		Authenticator: c.Authenticator,
	})
}
