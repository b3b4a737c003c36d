package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/JonMunkholm/matriculas/internal/config"
	"github.com/JonMunkholm/matriculas/internal/logging"
)

// Source loads the snapshot of a dataset.
// Implementations must return a RecordSet that is never mutated afterwards.
type Source interface {
	Load(ctx context.Context, def DatasetDefinition) (*RecordSet, error)
}

// ViewState is the part of a view the caller keeps between interactions.
type ViewState struct {
	Page     int `json:"page" yaml:"page"`
	PageSize int `json:"page_size" yaml:"page_size"`
}

// ViewRequest is everything one pipeline pass needs.
// Numeric.Column is ignored; the predicate always applies to the resolved column.
type ViewRequest struct {
	Dataset  string            `json:"dataset" yaml:"dataset"`
	Stage    string            `json:"stage" yaml:"stage"`
	SubStage string            `json:"sub_stage" yaml:"sub_stage"`
	Series   string            `json:"series" yaml:"series"`
	Years    []int             `json:"years" yaml:"years"`
	Networks []string          `json:"networks" yaml:"networks"`
	Text     map[string]string `json:"text" yaml:"text"`
	Numeric  NumericFilter     `json:"numeric" yaml:"numeric"`
	TopN     int               `json:"top_n" yaml:"top_n"`
	State    ViewState         `json:"state" yaml:"state"`
}

// ViewOptions are the selectable values for the next interaction.
type ViewOptions struct {
	Stages    []string
	SubStages []string
	Series    []string
	Years     []string
	Networks  []string
}

// ViewResult is the outcome of one pass.
type ViewResult struct {
	PassID     string
	Dataset    DatasetInfo
	Column     string
	Resolution Resolution
	Warnings   []UserMessage

	// Filtered is every row that passed the filters, sorted for display.
	Filtered  *RecordSet
	Aggregate AggregateResult
	Top       *RecordSet

	Page    Paginator
	Raw     *RecordSet // current page, unformatted
	Display *RecordSet // current page, formatted

	State   ViewState
	Options ViewOptions
}

// Service runs pipeline passes over registered datasets.
type Service struct {
	source  Source
	mapping *ColumnMapping
	view    config.ViewConfig
}

// NewService creates a Service reading snapshots from source.
func NewService(source Source, mapping *ColumnMapping, view config.ViewConfig) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no snapshot source", ErrMissingConfiguration)
	}
	if mapping == nil {
		return nil, fmt.Errorf("%w: no column mapping", ErrMissingConfiguration)
	}
	if view.MaxPageSize < 1 {
		view.MaxPageSize = DefaultMaxPageSize
	}
	if view.DefaultPageSize < 1 {
		view.DefaultPageSize = min(100, view.MaxPageSize)
	}
	if view.TopN < 1 {
		view.TopN = 10
	}
	return &Service{source: source, mapping: mapping, view: view}, nil
}

// ListDatasets returns information about all registered datasets.
func (s *Service) ListDatasets() []DatasetInfo {
	defs := Datasets()
	infos := make([]DatasetInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Run executes one pass: load, resolve, filter, sort, aggregate, paginate, format.
//
// Missing configuration and an empty year selection halt the pass and return
// an error; MapError turns it into the message to show. Mapping fallbacks do
// not halt the pass and are reported in ViewResult.Warnings.
func (s *Service) Run(ctx context.Context, req ViewRequest) (*ViewResult, error) {
	ctx, passID := logging.NewPass(ctx)
	log := logging.WithFields(ctx, "dataset", req.Dataset)

	def, err := Lookup(req.Dataset)
	if err != nil {
		log.Info("pass halted", "error", err)
		return nil, err
	}

	rs, err := s.source.Load(ctx, def)
	if err != nil {
		log.Error("snapshot load failed", "error", err)
		return nil, err
	}
	log.Debug("snapshot loaded", "rows", rs.Len(), "columns", len(rs.columns))

	mapping := s.mapping.Bind(rs.Columns())
	res := mapping.Resolve(req.Stage, req.SubStage, req.Series)
	warnings := make([]UserMessage, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		log.Warn("mapping fallback",
			"reason", w.Reason.String(),
			"stage", w.Stage,
			"sub_stage", w.SubStage,
			"series", w.Series,
			"column", w.Column,
		)
		warnings = append(warnings, MapError(w))
	}

	result := &ViewResult{
		PassID:     passID,
		Dataset:    def.Info,
		Column:     res.Column,
		Resolution: res,
		Warnings:   warnings,
		Options:    s.options(rs, def, req),
	}

	if res.Column == "" {
		err := fmt.Errorf("no column for stage %q: %w", req.Stage, res.Warnings[len(res.Warnings)-1])
		log.Warn("pass halted", "error", err)
		return result, err
	}

	text, ignored := textFilters(def, req.Text)
	for _, col := range ignored {
		log.Warn("text filter ignored", "column", col)
		result.Warnings = append(result.Warnings, textFilterIgnoredMessage(col))
	}

	numeric := req.Numeric
	numeric.Column = res.Column
	filtered, err := Filter(rs, FilterSpec{
		YearColumn:    def.YearColumn,
		Years:         req.Years,
		NetworkColumn: def.NetworkColumn,
		Networks:      req.Networks,
		Text:          text,
		Numeric:       numeric,
	})
	if err != nil {
		if errors.Is(err, ErrFilterPrecondition) {
			log.Info("pass halted", "error", err)
		} else {
			log.Error("filter failed", "error", err)
		}
		return result, err
	}

	columns := append(append([]string{}, def.DescriptiveColumns...), def.YearColumn, def.NetworkColumn, res.Column)
	columns = append(columns, def.PercentColumns...)

	ranked := numeric.Mode == NumericTopLargest || numeric.Mode == NumericTopSmallest
	sorted := filtered
	if !ranked {
		sorted = filtered.SortBy(res.Column, true)
	}
	result.Filtered = sorted
	result.Aggregate = Aggregate(sorted, res.Column)

	topN := req.TopN
	if topN < 1 {
		topN = s.view.TopN
	}
	result.Top = TopN(sorted, res.Column, topN, def.DescriptiveColumns)

	pageSize := s.view.ClampPageSize(req.State.PageSize)
	page := NewPaginator(sorted.Len(), pageSize, req.State.Page, s.view.MaxPageSize)
	result.Page = page
	result.State = ViewState{Page: page.Page(), PageSize: page.PageSize()}

	if ranked {
		// top-N order is final
		result.Raw = page.Slice(sorted).Project(columns)
		result.Display = FormatDisplay(result.Raw, res.Column, def.PercentColumns)
	} else {
		result.Raw, result.Display = DisplayTable(page.Slice(sorted), columns, res.Column, def.PercentColumns)
	}

	log.Info("pass complete",
		"column", res.Column,
		"level", res.Level.String(),
		"rows", sorted.Len(),
		"page", page.Page(),
		"total_pages", page.TotalPages(),
		"total", result.Aggregate.Total,
	)
	return result, nil
}

func (s *Service) options(rs *RecordSet, def DatasetDefinition, req ViewRequest) ViewOptions {
	opts := ViewOptions{
		Stages:    s.mapping.Stages(),
		SubStages: s.mapping.SubStages(req.Stage),
		Series:    s.mapping.Series(req.Stage, req.SubStage),
		Years:     rs.DistinctValues(def.YearColumn),
		Networks:  rs.DistinctValues(def.NetworkColumn),
	}
	sortYears(opts.Years)
	return opts
}

// textFilters keeps only filters on the dataset's text-filter columns and
// returns the other columns, sorted.
func textFilters(def DatasetDefinition, text map[string]string) (map[string]string, []string) {
	if len(text) == 0 {
		return nil, nil
	}
	allowed := make(map[string]bool, len(def.TextFilterColumns))
	for _, c := range def.TextFilterColumns {
		allowed[c] = true
	}
	out := make(map[string]string, len(text))
	var ignored []string
	for col, needle := range text {
		switch {
		case allowed[col]:
			out[col] = needle
		case needle != "":
			ignored = append(ignored, col)
		}
	}
	sort.Strings(ignored)
	return out, ignored
}

// sortYears orders year strings numerically, newest first.
func sortYears(years []string) {
	sort.SliceStable(years, func(i, j int) bool {
		a, errA := strconv.Atoi(years[i])
		b, errB := strconv.Atoi(years[j])
		if errA != nil || errB != nil {
			return errA == nil
		}
		return a > b
	})
}
