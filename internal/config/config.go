// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	// Store selects the ledger backend: file, sqlite or postgres.
	Store string

	// DataDir holds one document per room when Store is "file".
	DataDir string

	// DBPath is the SQLite database file.
	DBPath string

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// Timezone is the IANA zone used to render transaction dates.
	Timezone string
	Location *time.Location

	// AllowOrphans disables the check that payer and participants are room users.
	AllowOrphans bool

	// MetricsFile, if set, receives a Prometheus textfile dump on exit.
	MetricsFile string

	LogLevel string
}

// Load reads configuration from the environment and a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("SPLITROOM_STORE", StoreFile)
	v.SetDefault("SPLITROOM_DATA_DIR", "./data")
	v.SetDefault("SPLITROOM_DB_PATH", "./data/splitroom.db")
	v.SetDefault("SPLITROOM_DATABASE_URL", "")
	v.SetDefault("SPLITROOM_TIMEZONE", "Europe/Moscow")
	v.SetDefault("SPLITROOM_ALLOW_ORPHANS", false)
	v.SetDefault("SPLITROOM_METRICS_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	cfg := &Config{
		Store:        strings.ToLower(strings.TrimSpace(v.GetString("SPLITROOM_STORE"))),
		DataDir:      v.GetString("SPLITROOM_DATA_DIR"),
		DBPath:       v.GetString("SPLITROOM_DB_PATH"),
		DatabaseURL:  v.GetString("SPLITROOM_DATABASE_URL"),
		Timezone:     v.GetString("SPLITROOM_TIMEZONE"),
		AllowOrphans: v.GetBool("SPLITROOM_ALLOW_ORPHANS"),
		MetricsFile:  v.GetString("SPLITROOM_METRICS_FILE"),
		LogLevel:     v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the configuration and resolves the timezone.
func (c *Config) validate() error {
	var errs []string

	switch c.Store {
	case StoreFile:
		if c.DataDir == "" {
			errs = append(errs, "SPLITROOM_DATA_DIR is required for the file store")
		}
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, "SPLITROOM_DB_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "SPLITROOM_DATABASE_URL is required for the postgres store")
		}
	default:
		errs = append(errs, fmt.Sprintf("SPLITROOM_STORE must be one of file, sqlite, postgres (got %q)", c.Store))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("SPLITROOM_TIMEZONE is invalid: %v", err))
	} else {
		c.Location = loc
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
