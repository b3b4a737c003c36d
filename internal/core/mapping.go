package core

// mapping.go resolves a (stage, sub-stage, series) selection to a data column.
//
// The mapping file has one object per stage:
//
//	{
//	  "Ensino Fundamental": {
//	    "coluna": "QT_MAT_FUND",
//	    "subetapas": {"Anos Iniciais": "QT_MAT_FUND_AI"},
//	    "series": {"Anos Iniciais": {"1º Ano": "QT_MAT_FUND_AI_1"}}
//	  }
//	}
//
// YAML files use the same keys. Resolution walks stage -> sub-stage -> series
// and falls back one level whenever the requested level is unavailable, each
// fallback reported through a distinct FallbackReason.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// All selects every sub-stage or series of the level above.
const All = "All"

// stageDoc is the on-disk shape of one stage.
type stageDoc struct {
	Column    string                       `json:"coluna" yaml:"coluna"`
	SubStages map[string]string            `json:"subetapas" yaml:"subetapas"`
	Series    map[string]map[string]string `json:"series" yaml:"series"`
}

// SubStage is one sub-stage of a stage and the series beneath it.
type SubStage struct {
	Name   string
	Column string
	Series map[string]string
}

// Stage is one node of the mapping tree.
type Stage struct {
	Name      string
	Column    string
	SubStages map[string]*SubStage
}

// ColumnMapping is the read-only stage -> sub-stage -> series tree.
// A mapping bound to a RecordSet's columns (see Bind) also knows which
// columns exist and never resolves to an absent one.
type ColumnMapping struct {
	stages    map[string]*Stage
	available map[string]bool
}

// FallbackReason says why a resolution stopped above the requested level.
type FallbackReason int

const (
	FallbackNone FallbackReason = iota
	FallbackStageNotFound
	FallbackSubStageNotFound
	FallbackSeriesNotFound
	FallbackColumnMissing
)

func (r FallbackReason) String() string {
	switch r {
	case FallbackNone:
		return "none"
	case FallbackStageNotFound:
		return "stage not found"
	case FallbackSubStageNotFound:
		return "sub-stage not found"
	case FallbackSeriesNotFound:
		return "series not found"
	case FallbackColumnMissing:
		return "column missing from data"
	default:
		return fmt.Sprintf("FallbackReason(%d)", int(r))
	}
}

// Level is the specificity a resolution reached.
type Level int

const (
	LevelNone Level = iota
	LevelStage
	LevelSubStage
	LevelSeries
)

func (l Level) String() string {
	switch l {
	case LevelStage:
		return "stage"
	case LevelSubStage:
		return "sub-stage"
	case LevelSeries:
		return "series"
	default:
		return "none"
	}
}

// MappingWarning describes one fallback taken during resolution.
// It unwraps to ErrUnresolvedMapping.
type MappingWarning struct {
	Reason   FallbackReason
	Stage    string
	SubStage string
	Series   string
	Column   string // the column that was unavailable, for FallbackColumnMissing
}

func (w *MappingWarning) Error() string {
	switch w.Reason {
	case FallbackStageNotFound:
		return fmt.Sprintf("unresolved mapping: stage %q not found", w.Stage)
	case FallbackSubStageNotFound:
		return fmt.Sprintf("unresolved mapping: sub-stage %q not found in stage %q, using stage column", w.SubStage, w.Stage)
	case FallbackSeriesNotFound:
		return fmt.Sprintf("unresolved mapping: series %q not found in %q/%q, using sub-stage column", w.Series, w.Stage, w.SubStage)
	case FallbackColumnMissing:
		return fmt.Sprintf("unresolved mapping: column %q missing from data, using parent column", w.Column)
	default:
		return "unresolved mapping"
	}
}

func (w *MappingWarning) Unwrap() error { return ErrUnresolvedMapping }

// Resolution is the outcome of ColumnMapping.Resolve.
type Resolution struct {
	Column   string
	Level    Level
	Warnings []*MappingWarning
}

// Exact reports whether the requested level was resolved without any fallback.
func (r Resolution) Exact() bool {
	return len(r.Warnings) == 0
}

// LoadMapping reads a mapping file; the format is chosen by extension (.json, .yaml, .yml).
// A missing file wraps ErrMissingConfiguration.
func LoadMapping(path string) (*ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: mapping file %s not found", ErrMissingConfiguration, path)
		}
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseMappingYAML(data)
	default:
		return ParseMappingJSON(data)
	}
}

// ParseMappingJSON builds a ColumnMapping from JSON.
func ParseMappingJSON(data []byte) (*ColumnMapping, error) {
	var doc map[string]stageDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse mapping json: %v", ErrMissingConfiguration, err)
	}
	return buildMapping(doc)
}

// ParseMappingYAML builds a ColumnMapping from YAML.
func ParseMappingYAML(data []byte) (*ColumnMapping, error) {
	var doc map[string]stageDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse mapping yaml: %v", ErrMissingConfiguration, err)
	}
	return buildMapping(doc)
}

func buildMapping(doc map[string]stageDoc) (*ColumnMapping, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: mapping has no stages", ErrMissingConfiguration)
	}

	m := &ColumnMapping{stages: make(map[string]*Stage, len(doc))}
	for name, sd := range doc {
		if sd.Column == "" {
			return nil, fmt.Errorf("%w: stage %q has no column", ErrMissingConfiguration, name)
		}
		st := &Stage{Name: name, Column: sd.Column, SubStages: make(map[string]*SubStage, len(sd.SubStages))}
		for subName, col := range sd.SubStages {
			st.SubStages[subName] = &SubStage{Name: subName, Column: col, Series: sd.Series[subName]}
		}
		m.stages[name] = st
	}
	return m, nil
}

// Bind returns a copy of m whose column ids are normalised against columns:
// each configured id keeps an exact match, else takes a case-insensitive match,
// else stays unchanged. The copy remembers which columns exist so Resolve
// climbs to the nearest present ancestor.
func (m *ColumnMapping) Bind(columns []string) *ColumnMapping {
	bound := &ColumnMapping{
		stages:    make(map[string]*Stage, len(m.stages)),
		available: make(map[string]bool, len(columns)),
	}
	for _, c := range columns {
		bound.available[c] = true
	}

	norm := func(col string) string {
		c, _ := lookupColumn(columns, col)
		return c
	}

	for name, st := range m.stages {
		nst := &Stage{Name: name, Column: norm(st.Column), SubStages: make(map[string]*SubStage, len(st.SubStages))}
		for subName, sub := range st.SubStages {
			nsub := &SubStage{Name: subName, Column: norm(sub.Column)}
			if sub.Series != nil {
				nsub.Series = make(map[string]string, len(sub.Series))
				for serName, col := range sub.Series {
					nsub.Series[serName] = norm(col)
				}
			}
			nst.SubStages[subName] = nsub
		}
		bound.stages[name] = nst
	}
	return bound
}

// Resolve returns the column for the selection.
//
//   - unknown stage: Column "" with a FallbackStageNotFound warning
//   - subStage All: the stage column
//   - unknown subStage: the stage column with FallbackSubStageNotFound
//   - series All: the sub-stage column
//   - unknown series: the sub-stage column with FallbackSeriesNotFound
//   - otherwise the series column
//
// An empty selector is treated as All. On a bound mapping, a resolved column
// absent from the data climbs one level at a time with FallbackColumnMissing.
func (m *ColumnMapping) Resolve(stage, subStage, series string) Resolution {
	st, ok := m.stages[stage]
	if !ok {
		return Resolution{
			Level:    LevelNone,
			Warnings: []*MappingWarning{{Reason: FallbackStageNotFound, Stage: stage, SubStage: subStage, Series: series}},
		}
	}

	// candidates from most to least specific
	type candidate struct {
		column string
		level  Level
	}
	var chain []candidate
	var warnings []*MappingWarning
	warn := func(reason FallbackReason) {
		warnings = append(warnings, &MappingWarning{Reason: reason, Stage: stage, SubStage: subStage, Series: series})
	}

	if !isAll(subStage) {
		if sub, ok := st.SubStages[subStage]; !ok {
			warn(FallbackSubStageNotFound)
		} else {
			if !isAll(series) {
				if col, ok := sub.Series[series]; ok {
					chain = append(chain, candidate{col, LevelSeries})
				} else {
					warn(FallbackSeriesNotFound)
				}
			}
			chain = append(chain, candidate{sub.Column, LevelSubStage})
		}
	}
	chain = append(chain, candidate{st.Column, LevelStage})

	for _, c := range chain {
		if m.available == nil || m.available[c.column] {
			return Resolution{Column: c.column, Level: c.level, Warnings: warnings}
		}
		warnings = append(warnings, &MappingWarning{
			Reason: FallbackColumnMissing, Stage: stage, SubStage: subStage, Series: series, Column: c.column,
		})
	}
	return Resolution{Level: LevelNone, Warnings: warnings}
}

func isAll(s string) bool {
	return s == "" || s == All
}

// Stages returns the stage names, sorted.
func (m *ColumnMapping) Stages() []string {
	names := make([]string, 0, len(m.stages))
	for name := range m.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubStages returns the sub-stage names of stage, sorted. Unknown stages yield nil.
func (m *ColumnMapping) SubStages(stage string) []string {
	st, ok := m.stages[stage]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(st.SubStages))
	for name := range st.SubStages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series returns the series names of stage/subStage, sorted.
func (m *ColumnMapping) Series(stage, subStage string) []string {
	st, ok := m.stages[stage]
	if !ok {
		return nil
	}
	sub, ok := st.SubStages[subStage]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(sub.Series))
	for name := range sub.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
