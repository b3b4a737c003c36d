package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/matriculas/internal/config"
	"github.com/JonMunkholm/matriculas/internal/core"
	_ "github.com/JonMunkholm/matriculas/internal/core/datasets" // Register all datasets
	"github.com/JonMunkholm/matriculas/internal/logging"
	"github.com/JonMunkholm/matriculas/internal/snapshot"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"snapshot_dirs", cfg.Snapshot.Dirs,
		"mapping", cfg.Mapping.Path,
		"database", cfg.Database.Enabled(),
		"max_page_size", cfg.View.MaxPageSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("pass failed", "error", err, "message", core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	mapping, err := core.LoadMapping(cfg.Mapping.Path)
	if err != nil {
		return err
	}
	slog.Info("mapping loaded", "stages", len(mapping.Stages()))

	var db snapshot.Querier
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = pool
	}

	loader := snapshot.NewLoader(cfg.Snapshot, db, cfg.Database.CacheTTL)
	service, err := core.NewService(loader, mapping, cfg.View)
	if err != nil {
		return err
	}

	// Log registered datasets
	slog.Info("datasets registered", "count", core.DatasetCount())
	for _, info := range service.ListDatasets() {
		slog.Debug("dataset", "key", info.Key, "stem", info.FileStem, "table", info.Table)
	}

	if cfg.View.RequestPath == "" {
		return fmt.Errorf("%w: VIEW_REQUEST_PATH is not set", core.ErrMissingConfiguration)
	}
	req, err := readRequest(cfg.View.RequestPath)
	if err != nil {
		return err
	}

	result, err := service.Run(ctx, *req)
	if errors.Is(err, core.ErrFilterPrecondition) {
		// nothing to show until the request selects a year
		slog.Info("pass halted", "pass_id", result.PassID, "message", core.FormatUserError(err))
		return nil
	}
	if err != nil {
		return err
	}
	report(result)

	return export(&cfg.Export, result)
}

// connect opens the read-only snapshot pool.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// readRequest decodes a JSON or YAML view request.
func readRequest(path string) (*core.ViewRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read view request: %v", core.ErrMissingConfiguration, err)
	}

	var req core.ViewRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse view request %s: %v", core.ErrMissingConfiguration, path, err)
	}
	return &req, nil
}

func report(r *core.ViewResult) {
	log := slog.With("pass_id", r.PassID, "dataset", r.Dataset.Key)

	for _, w := range r.Warnings {
		log.Warn(w.Message, "code", w.Code)
	}
	for _, m := range r.Aggregate.Metrics() {
		log.Info("aggregate", "metric", m.Name, "value", m.Value)
	}
	for i := 0; i < r.Top.Len(); i++ {
		log.Info("top", "rank", i+1, "row", r.Top.Row(i))
	}
	log.Info("page",
		"page", r.Page.Page(),
		"total_pages", r.Page.TotalPages(),
		"start", r.Page.Start(),
		"end", r.Page.End(),
	)
	for i := 0; i < r.Display.Len(); i++ {
		log.Debug("row", "n", r.Page.Start()+i+1, "values", r.Display.Row(i))
	}
}

// export writes the filtered rows in every enabled format.
// Conversion failures still write the placeholder payload.
func export(cfg *config.ExportConfig, r *core.ViewResult) error {
	if !cfg.CSV && !cfg.XLSX {
		return nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	log := slog.With("pass_id", r.PassID, "dataset", r.Dataset.Key)
	now := time.Now()

	type target struct {
		enabled bool
		ext     string
		convert func(*core.RecordSet) ([]byte, error)
	}
	for _, t := range []target{
		{cfg.CSV, "csv", core.ToDelimitedText},
		{cfg.XLSX, "xlsx", core.ToSpreadsheet},
	} {
		if !t.enabled {
			continue
		}
		payload, convErr := t.convert(r.Filtered)
		if convErr != nil {
			log.Error("export conversion failed", "format", t.ext, "error", convErr)
		}
		path := filepath.Join(cfg.Dir, core.ExportFilename(r.Dataset.Key, t.ext, now))
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("write export %s: %w", path, err)
		}
		log.Info("export written", "path", path, "bytes", len(payload))
	}
	return nil
}
