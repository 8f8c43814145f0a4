package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryInitialInterval)
	assert.Equal(t, uint(0), cfg.RetryMaxAttempts)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE", "POSTGRES")
	t.Setenv("PGSQL_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("COMMAND_TIMEOUT", "2s")
	t.Setenv("RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.CommandTimeout)
	assert.Equal(t, uint(4), cfg.RetryMaxAttempts)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
}

func TestLoadConfig_Invalid(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE", "redis")
	_, err := LoadConfig()
	assert.Error(t, err)

	viper.Reset()
	t.Setenv("STORE", "memory")
	t.Setenv("COMMAND_TIMEOUT", "soon")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "COMMAND_TIMEOUT")
}
