package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SPLITROOM_STORE", "SPLITROOM_DATA_DIR", "SPLITROOM_DB_PATH", "SPLITROOM_DATABASE_URL",
		"SPLITROOM_TIMEZONE", "SPLITROOM_ALLOW_ORPHANS", "SPLITROOM_METRICS_FILE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	// Empty variables fall back to defaults.

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./data/splitroom.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.False(t, cfg.AllowOrphans)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SPLITROOM_STORE", "SQLite")
	t.Setenv("SPLITROOM_DB_PATH", "/tmp/rooms.db")
	t.Setenv("SPLITROOM_TIMEZONE", "UTC")
	t.Setenv("SPLITROOM_ALLOW_ORPHANS", "true")
	t.Setenv("SPLITROOM_METRICS_FILE", "/tmp/splitroom.prom")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/rooms.db", cfg.DBPath)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.True(t, cfg.AllowOrphans)
	assert.Equal(t, "/tmp/splitroom.prom", cfg.MetricsFile)
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	t.Setenv("SPLITROOM_STORE", "postgres")
	t.Setenv("SPLITROOM_DATABASE_URL", "")
	t.Setenv("SPLITROOM_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPLITROOM_DATABASE_URL is required")
	assert.Contains(t, err.Error(), "SPLITROOM_TIMEZONE is invalid")
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("SPLITROOM_STORE", "redis")
	t.Setenv("SPLITROOM_TIMEZONE", "UTC")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `got "redis"`)
}
