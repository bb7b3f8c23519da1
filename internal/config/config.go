// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load layers a YAML file and environment variables on top of New.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory match request queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of match workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many match request ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultLimit is the shortlist size when a request names none.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the limit a request may ask for.
	MaxLimit int `koanf:"max_limit"`

	// RoleSeparator delimits role ids in user records.
	RoleSeparator string `koanf:"role_separator"`

	// RosterFile optionally seeds the roster from a YAML file.
	RosterFile string `koanf:"roster_file"`

	// DatabaseURL, when set, loads the roster from PostgreSQL.
	DatabaseURL string `koanf:"database_url"`

	// DBMaxConns bounds the PostgreSQL pool.
	DBMaxConns int32 `koanf:"db_max_conns"`

	// RosterRefreshSeconds reloads the PostgreSQL roster periodically; 0 disables.
	RosterRefreshSeconds int `koanf:"roster_refresh_seconds"`
}

// New creates a Config with defaults. The context is accepted to keep the
// package signature uniform with Load.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "console",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           50_000,
		DefaultLimit:         3,
		MaxLimit:             50,
		RoleSeparator:        ",",
		DBMaxConns:           4,
		RosterRefreshSeconds: 60,
	}
}
