// Package config provides centralized configuration management for the dashboard core.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Snapshot SnapshotConfig
	Mapping  MappingConfig
	Database DatabaseConfig
	View     ViewConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// SnapshotConfig holds settings for locating and parsing snapshot files.
type SnapshotConfig struct {
	// Dirs are the candidate directories searched in order (default: data,.)
	Dirs []string `env:"SNAPSHOT_DIRS" default:"data,."`

	// CSVDelimiter is the field separator for CSV snapshots (default: ;)
	CSVDelimiter string `env:"SNAPSHOT_CSV_DELIMITER" default:";"`

	// CSVEncoding is the character set of CSV snapshots: utf-8 or latin1 (default: utf-8)
	CSVEncoding string `env:"SNAPSHOT_CSV_ENCODING" default:"utf-8"`
}

// MappingConfig holds the location of the stage/sub-stage/series column mapping.
type MappingConfig struct {
	// Path is the JSON or YAML mapping file (required)
	Path string `env:"MAPPING_PATH" required:"true"`
}

// DatabaseConfig holds the optional PostgreSQL snapshot source.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables the database source.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// CacheTTL is how long a table snapshot stays cached (default: 10m)
	CacheTTL time.Duration `env:"DB_CACHE_TTL" default:"10m"`
}

// ViewConfig holds settings for a single view pass.
type ViewConfig struct {
	// RequestPath is the JSON or YAML view request consumed by the batch command
	RequestPath string `env:"VIEW_REQUEST_PATH"`

	// MaxPageSize bounds any requested page size (default: 10000)
	MaxPageSize int `env:"VIEW_MAX_PAGE_SIZE" default:"10000"`

	// DefaultPageSize is used when a request does not name one (default: 100)
	DefaultPageSize int `env:"VIEW_DEFAULT_PAGE_SIZE" default:"100"`

	// TopN is the size of the ranking block (default: 10)
	TopN int `env:"VIEW_TOP_N" default:"10"`
}

// ExportConfig holds settings for the export files written by the batch command.
type ExportConfig struct {
	// Dir is where export files are written (default: exports)
	Dir string `env:"EXPORT_DIR" default:"exports"`

	// CSV enables the comma-separated export (default: true)
	CSV bool `env:"EXPORT_CSV" default:"true"`

	// XLSX enables the spreadsheet export (default: true)
	XLSX bool `env:"EXPORT_XLSX" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Enabled reports whether a PostgreSQL source is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ClampPageSize bounds n to [1, MaxPageSize], substituting DefaultPageSize for n < 1.
func (c *ViewConfig) ClampPageSize(n int) int {
	if n < 1 {
		n = c.DefaultPageSize
	}
	if n > c.MaxPageSize {
		n = c.MaxPageSize
	}
	if n < 1 {
		n = 1
	}
	return n
}
