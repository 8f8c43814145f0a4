package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      string
	Store         string // postgres or memory

	DBMaxConns  int32
	LockTimeout time.Duration // Postgres lock_timeout per command transaction; 0 disables

	// Command execution
	CommandTimeout       time.Duration
	RetryMaxAttempts     uint          // 0 or 1 disables retries
	RetryInitialInterval time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE", StorePostgres)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOCK_TIMEOUT", "5s")
	viper.SetDefault("COMMAND_TIMEOUT", "10s")
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 0)
	viper.SetDefault("RETRY_INITIAL_INTERVAL", "50ms")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:      viper.GetString("PGSQL_URL"),
		IsProduction:     viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:    viper.GetBool("ENABLE_DB_CHECK"),
		LogLevel:         strings.ToLower(viper.GetString("LOG_LEVEL")),
		Store:            strings.ToLower(viper.GetString("STORE")),
		DBMaxConns:       viper.GetInt32("DB_MAX_CONNS"),
		RetryMaxAttempts: viper.GetUint("RETRY_MAX_ATTEMPTS"),
	}

	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE %q: expected %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}

	var err error
	if cfg.LockTimeout, err = parseDuration("LOCK_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.CommandTimeout, err = parseDuration("COMMAND_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.RetryInitialInterval, err = parseDuration("RETRY_INITIAL_INTERVAL"); err != nil {
		return nil, err
	}

	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
		log.Printf("Warning: DB_MAX_CONNS must be positive. Defaulting to %d.\n", cfg.DBMaxConns)
	}

	return cfg, nil
}

func parseDuration(key string) (time.Duration, error) {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid value for %s (%q): must not be negative", key, raw)
	}
	return d, nil
}
