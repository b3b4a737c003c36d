// Package snapshot loads enrollment snapshots into core.RecordSets.
//
// A dataset is looked up as <dir>/<stem>.parquet, then <dir>/<stem>.csv, in
// each configured directory in order, and finally as a PostgreSQL table when a
// database is configured. Loads are cached by value: a file entry is reused
// while its path, modification time and size are unchanged, a table entry
// until its TTL expires. Cached RecordSets are shared, never copied, since
// nothing mutates a RecordSet after load.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/matriculas/internal/config"
	"github.com/JonMunkholm/matriculas/internal/core"
	"github.com/JonMunkholm/matriculas/internal/logging"
)

// Format is the kind of snapshot source.
type Format string

const (
	FormatParquet  Format = "parquet"
	FormatCSV      Format = "csv"
	FormatPostgres Format = "postgres"
)

// Location identifies where a dataset's snapshot was found.
type Location struct {
	Format Format
	Path   string // file path, or table name for FormatPostgres
}

// fileKey is the modification signature of a snapshot file.
type fileKey struct {
	path    string
	modTime time.Time
	size    int64
}

type fileEntry struct {
	key fileKey
	rs  *core.RecordSet
}

type tableEntry struct {
	loaded time.Time
	rs     *core.RecordSet
}

// Loader implements core.Source over snapshot files and an optional database.
type Loader struct {
	dirs []string
	csv  CSVOptions
	db   Querier
	ttl  time.Duration
	now  func() time.Time

	mu     sync.Mutex
	files  map[string]fileEntry
	tables map[string]tableEntry
	stats  Stats
}

// Stats counts cache outcomes since the Loader was created.
type Stats struct {
	Hits   int
	Misses int
}

// NewLoader creates a Loader. db may be nil to disable the database source.
func NewLoader(cfg config.SnapshotConfig, db Querier, ttl time.Duration) *Loader {
	return &Loader{
		dirs:   cfg.Dirs,
		csv:    CSVOptions{Delimiter: cfg.Delimiter(), Latin1: cfg.Latin1()},
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		files:  make(map[string]fileEntry),
		tables: make(map[string]tableEntry),
	}
}

// Locate finds the snapshot of def without loading it.
// A dataset found nowhere returns an error wrapping core.ErrMissingConfiguration.
func (l *Loader) Locate(def core.DatasetDefinition) (Location, error) {
	for _, dir := range l.dirs {
		for _, format := range []Format{FormatParquet, FormatCSV} {
			path := filepath.Join(dir, def.Info.FileStem+"."+string(format))
			info, err := os.Stat(path)
			if err == nil && info.Mode().IsRegular() {
				return Location{Format: format, Path: path}, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Debug("snapshot candidate unreadable", "path", path, "error", err)
			}
		}
	}
	if l.db != nil && def.Info.Table != "" {
		return Location{Format: FormatPostgres, Path: def.Info.Table}, nil
	}
	return Location{}, fmt.Errorf("%w: snapshot not found for %s (searched %s for %s.parquet, %s.csv)",
		core.ErrMissingConfiguration, def.Info.Key, strings.Join(l.dirs, ", "), def.Info.FileStem, def.Info.FileStem)
}

// Load returns the RecordSet of def, from cache when the source is unchanged.
func (l *Loader) Load(ctx context.Context, def core.DatasetDefinition) (*core.RecordSet, error) {
	loc, err := l.Locate(def)
	if err != nil {
		return nil, err
	}
	log := logging.WithFields(ctx, "dataset", def.Info.Key, "format", string(loc.Format), "source", loc.Path)

	if loc.Format == FormatPostgres {
		return l.loadTable(ctx, log, def, loc.Path)
	}
	return l.loadFile(ctx, log, def, loc)
}

func (l *Loader) loadFile(ctx context.Context, log *slog.Logger, def core.DatasetDefinition, loc Location) (*core.RecordSet, error) {
	info, err := os.Stat(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat snapshot %s: %v", core.ErrMissingConfiguration, loc.Path, err)
	}
	key := fileKey{path: loc.Path, modTime: info.ModTime(), size: info.Size()}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.files[loc.Path]; ok && e.key == key {
		l.stats.Hits++
		log.Debug("snapshot cache hit")
		return e.rs, nil
	}
	l.stats.Misses++

	start := time.Now()
	var rs *core.RecordSet
	switch loc.Format {
	case FormatParquet:
		rs, err = ReadParquetFile(ctx, loc.Path)
	default:
		rs, err = ReadCSVFile(loc.Path, l.csv)
	}
	if err != nil {
		return nil, err
	}
	rs = def.Normalize(rs)

	l.files[loc.Path] = fileEntry{key: key, rs: rs}
	log.Info("snapshot loaded", "rows", rs.Len(), "duration", time.Since(start))
	return rs, nil
}

func (l *Loader) loadTable(ctx context.Context, log *slog.Logger, def core.DatasetDefinition, table string) (*core.RecordSet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.tables[table]; ok && l.now().Sub(e.loaded) < l.ttl {
		l.stats.Hits++
		log.Debug("snapshot cache hit")
		return e.rs, nil
	}
	l.stats.Misses++

	start := time.Now()
	rs, err := ReadTable(ctx, l.db, table)
	if err != nil {
		return nil, err
	}
	rs = def.Normalize(rs)

	l.tables[table] = tableEntry{loaded: l.now(), rs: rs}
	log.Info("snapshot loaded", "rows", rs.Len(), "duration", time.Since(start))
	return rs, nil
}

// Stats returns the cache counters.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Invalidate drops every cached snapshot.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = make(map[string]fileEntry)
	l.tables = make(map[string]tableEntry)
}
