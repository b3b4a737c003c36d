package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]DatasetDefinition)
	registryMu sync.RWMutex
)

// DatasetInfo identifies a dataset and where its snapshot lives.
type DatasetInfo struct {
	Key      string // Unique identifier: "escolas"
	Label    string // Display name: "Escolas"
	FileStem string // Snapshot file name without extension: "dados_escolas"
	Table    string // Optional PostgreSQL table: "matriculas_escolas"
}

// DatasetDefinition describes one aggregation level of the enrollment data.
type DatasetDefinition struct {
	Info DatasetInfo

	YearColumn    string // required selection
	NetworkColumn string // administrative network (Federal, Estadual, ...)

	// DescriptiveColumns identify a row (name, code, city) and are kept by
	// TopN and the display projection alongside the value column.
	DescriptiveColumns []string

	// TextFilterColumns accept free-text substring filters.
	TextFilterColumns []string

	// PercentColumns render with FormatPercent in the display table.
	PercentColumns []string

	// Normalizers rewrite cells of the named columns once, at load time.
	Normalizers map[string]NormalizeFunc
}

// NormalizeFunc maps a raw snapshot cell to its canonical value.
type NormalizeFunc func(Value) Value

// Normalize applies the definition's normalizers to rs.
// rs is returned as is when no normalizer names one of its columns.
func (d DatasetDefinition) Normalize(rs *RecordSet) *RecordSet {
	fns := make(map[int]NormalizeFunc)
	for col, fn := range d.Normalizers {
		if c, ok := rs.index[col]; ok && fn != nil {
			fns[c] = fn
		}
	}
	if len(fns) == 0 {
		return rs
	}

	rows := make([]Row, len(rs.rows))
	for i, row := range rs.rows {
		out := make(Row, len(row))
		copy(out, row)
		for c, fn := range fns {
			out[c] = fn(row[c])
		}
		rows[i] = out
	}
	return rs.derive(rows)
}

// Register adds a dataset definition to the registry.
// Panics if a dataset with the same key is already registered.
func Register(def DatasetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", def.Info.Key))
	}

	// Text filters default to the descriptive columns
	if len(def.TextFilterColumns) == 0 {
		def.TextFilterColumns = def.DescriptiveColumns
	}

	registry[def.Info.Key] = def
}

// Get returns a dataset definition by key.
// Returns false if not found.
func Get(key string) (DatasetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an error wrapping ErrUnknownDataset.
func Lookup(key string) (DatasetDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return DatasetDefinition{}, fmt.Errorf("%w: %q", ErrUnknownDataset, key)
	}
	return def, nil
}

// Datasets returns all registered dataset definitions, sorted by key.
func Datasets() []DatasetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]DatasetDefinition)
}
