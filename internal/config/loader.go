package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Mapping validation
	if c.Mapping.Path == "" {
		errs = append(errs, "MAPPING_PATH is required")
	} else {
		switch strings.ToLower(filepath.Ext(c.Mapping.Path)) {
		case ".json", ".yaml", ".yml":
		default:
			errs = append(errs, fmt.Sprintf("MAPPING_PATH (%q) must end in .json, .yaml or .yml", c.Mapping.Path))
		}
	}

	// Snapshot validation
	if len(c.Snapshot.Dirs) == 0 {
		errs = append(errs, "SNAPSHOT_DIRS must list at least one directory")
	}
	if len([]rune(c.Snapshot.CSVDelimiter)) != 1 {
		errs = append(errs, fmt.Sprintf("SNAPSHOT_CSV_DELIMITER (%q) must be a single character", c.Snapshot.CSVDelimiter))
	}
	validEncodings := map[string]bool{"utf-8": true, "utf8": true, "latin1": true, "iso-8859-1": true}
	if !validEncodings[strings.ToLower(c.Snapshot.CSVEncoding)] {
		errs = append(errs, fmt.Sprintf("SNAPSHOT_CSV_ENCODING (%q) must be one of: utf-8, latin1", c.Snapshot.CSVEncoding))
	}

	// Database validation (only when a database source is configured)
	if c.Database.Enabled() {
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.CacheTTL < 0 {
			errs = append(errs, "DB_CACHE_TTL must be non-negative")
		}
	}

	// View validation
	if c.View.MaxPageSize <= 0 {
		errs = append(errs, "VIEW_MAX_PAGE_SIZE must be positive")
	}
	if c.View.DefaultPageSize <= 0 {
		errs = append(errs, "VIEW_DEFAULT_PAGE_SIZE must be positive")
	}
	if c.View.DefaultPageSize > c.View.MaxPageSize {
		errs = append(errs, fmt.Sprintf("VIEW_DEFAULT_PAGE_SIZE (%d) must be <= VIEW_MAX_PAGE_SIZE (%d)",
			c.View.DefaultPageSize, c.View.MaxPageSize))
	}
	if c.View.TopN <= 0 {
		errs = append(errs, "VIEW_TOP_N must be positive")
	}

	// Export validation
	if (c.Export.CSV || c.Export.XLSX) && c.Export.Dir == "" {
		errs = append(errs, "EXPORT_DIR is required when an export format is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Latin1 reports whether CSV snapshots should be decoded as ISO-8859-1.
func (c *SnapshotConfig) Latin1() bool {
	switch strings.ToLower(c.CSVEncoding) {
	case "latin1", "iso-8859-1":
		return true
	}
	return false
}

// Delimiter returns the CSV delimiter as a rune.
func (c *SnapshotConfig) Delimiter() rune {
	for _, r := range c.CSVDelimiter {
		return r
	}
	return ','
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Snapshot: {Dirs: %q, Delimiter: %q, Encoding: %q}, ",
		c.Snapshot.Dirs, c.Snapshot.CSVDelimiter, c.Snapshot.CSVEncoding))
	b.WriteString(fmt.Sprintf("Mapping: {Path: %q}, ", c.Mapping.Path))
	if c.Database.Enabled() {
		b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, CacheTTL: %s}, ",
			c.Database.MaxConns, c.Database.CacheTTL))
	} else {
		b.WriteString("Database: {disabled}, ")
	}
	b.WriteString(fmt.Sprintf("View: {MaxPageSize: %d, DefaultPageSize: %d, TopN: %d}, ",
		c.View.MaxPageSize, c.View.DefaultPageSize, c.View.TopN))
	b.WriteString(fmt.Sprintf("Export: {Dir: %q, CSV: %v, XLSX: %v}, ", c.Export.Dir, c.Export.CSV, c.Export.XLSX))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
