// Package config provides centralized configuration management for the
// application.
//
// Values come from four layers, later ones winning: `default` struct tags,
// an optional TOML file, environment variables (`env`, then `envAlt`), and
// command line flags applied by the caller. Validate runs once all layers
// have been applied, so that a required setting may come from any of them.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Printer PrinterConfig `toml:"printer"`
	Source  SourceConfig  `toml:"source"`
	Fetch   FetchConfig   `toml:"fetch"`
	Monitor MonitorConfig `toml:"monitor"`
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
}

// PrinterConfig describes the print run itself.
type PrinterConfig struct {
	// Name is the print name; output goes to Dest/Name (required)
	Name string `toml:"name" env:"PRINT_NAME"`

	// Dest is the directory that holds print outputs (required)
	Dest string `toml:"dest" env:"PRINT_DEST"`

	// Mode is "supervised" or "automatic" (required)
	Mode string `toml:"mode" env:"PRINT_MODE"`

	// PollInterval is how often operator waits check for shutdown (default: 100ms)
	PollInterval time.Duration `toml:"poll_interval" env:"PRINT_POLL_INTERVAL" default:"100ms"`

	// SkipHeader drops the first plan record (default: true)
	SkipHeader bool `toml:"skip_header" env:"PRINT_SKIP_HEADER" default:"true"`
}

// SourceConfig locates the print plan.
type SourceConfig struct {
	// Path is the local plan file (default: fake_print_data.csv)
	Path string `toml:"path" env:"PLAN_PATH" default:"fake_print_data.csv"`

	// URL is downloaded to Path when the file is missing; empty disables it
	URL string `toml:"url" env:"PLAN_URL" default:"https://bit.ly/3AE4mbA"`
}

// FetchConfig tunes image and plan downloads.
type FetchConfig struct {
	// Timeout bounds one whole transfer (default: 30s)
	Timeout time.Duration `toml:"timeout" env:"FETCH_TIMEOUT" default:"30s"`

	// UserAgent is sent with every request (default: fakeprinter/1.0)
	UserAgent string `toml:"user_agent" env:"FETCH_USER_AGENT" default:"fakeprinter/1.0"`
}

// MonitorConfig holds the optional status server settings.
type MonitorConfig struct {
	// Addr is the listen address, e.g. ":8090"; empty disables the server
	Addr string `toml:"addr" env:"MONITOR_ADDR"`

	// ShutdownTimeout bounds graceful shutdown (default: 5s)
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"MONITOR_SHUTDOWN_TIMEOUT" default:"5s"`
}

// HistoryConfig holds the optional run ledger settings.
type HistoryConfig struct {
	// URL is the PostgreSQL connection string; empty disables the ledger.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `toml:"database_url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pool connections (default: 4)
	MaxConns int `toml:"max_conns" env:"DB_MAX_CONNS" default:"4"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the console log level: debug, info, warn, error (default: info)
	Level string `toml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the console format: text or json (default: text)
	Format string `toml:"format" env:"LOG_FORMAT" default:"text"`

	// File receives debug-level logs; empty disables it (default: FakePrinter.log)
	File string `toml:"file" env:"LOG_FILE" default:"FakePrinter.log"`

	// FileFormat is the log file format: text or json (default: json)
	FileFormat string `toml:"file_format" env:"LOG_FILE_FORMAT" default:"json"`
}

// OutputRoot returns the directory a run writes into.
func (c *PrinterConfig) OutputRoot() string {
	return filepath.Join(c.Dest, c.Name)
}
