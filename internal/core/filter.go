package core

import (
	"sort"
	"strings"
)

// NumericMode selects the single numeric predicate applied to the primary column.
type NumericMode string

const (
	NumericNone        NumericMode = ""
	NumericGreaterThan NumericMode = "gt"
	NumericLessThan    NumericMode = "lt"
	NumericBetween     NumericMode = "between"
	NumericTopLargest  NumericMode = "top"
	NumericTopSmallest NumericMode = "bottom"
)

// NumericFilter is the predicate on the primary numeric column.
// Only the fields relevant to Mode are read; one Mode means one active predicate.
type NumericFilter struct {
	Column    string      `json:"column,omitempty" yaml:"column,omitempty"`
	Mode      NumericMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	Threshold float64     `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Min       float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Max       float64     `json:"max,omitempty" yaml:"max,omitempty"`
	N         int         `json:"n,omitempty" yaml:"n,omitempty"`
}

// FilterSpec is every predicate of one pass, rebuilt from caller state each time.
type FilterSpec struct {
	YearColumn    string
	Years         []int
	NetworkColumn string
	Networks      []string
	Text          map[string]string // column -> case-insensitive substring
	Numeric       NumericFilter
}

// Filter applies spec to rs and returns a new RecordSet.
//
// The year selection is required: an empty Years returns ErrNoYearSelected.
// Clauses naming a column absent from rs are skipped. Every clause except the
// top-N modes preserves rs's row order.
func Filter(rs *RecordSet, spec FilterSpec) (*RecordSet, error) {
	if len(spec.Years) == 0 {
		return nil, ErrNoYearSelected
	}

	rows := rs.rows
	rows = filterYears(rs, rows, spec.YearColumn, spec.Years)
	rows = filterNetworks(rs, rows, spec.NetworkColumn, spec.Networks)
	rows = filterText(rs, rows, spec.Text)

	out := rs.derive(rows)
	return ApplyNumeric(out, spec.Numeric), nil
}

func filterYears(rs *RecordSet, rows []Row, col string, years []int) []Row {
	c, ok := rs.index[col]
	if !ok {
		return rows
	}
	set := make(map[int64]struct{}, len(years))
	for _, y := range years {
		set[int64(y)] = struct{}{}
	}
	return keepRows(rows, func(row Row) bool {
		y, ok := ToInt(row[c])
		if !ok {
			return false
		}
		_, in := set[y]
		return in
	})
}

func filterNetworks(rs *RecordSet, rows []Row, col string, networks []string) []Row {
	if len(networks) == 0 {
		return rows
	}
	c, ok := rs.index[col]
	if !ok {
		return rows
	}
	set := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		set[n] = struct{}{}
	}
	return keepRows(rows, func(row Row) bool {
		_, in := set[ToString(row[c])]
		return in
	})
}

func filterText(rs *RecordSet, rows []Row, text map[string]string) []Row {
	for col, needle := range text {
		if needle == "" {
			continue
		}
		c, ok := rs.index[col]
		if !ok {
			continue
		}
		needle = strings.ToLower(needle)
		rows = keepRows(rows, func(row Row) bool {
			return strings.Contains(strings.ToLower(ToString(row[c])), needle)
		})
	}
	return rows
}

// ApplyNumeric applies a single numeric predicate to rs.
// Comparison modes keep row order and drop rows whose value is not numeric.
// Top modes order by value with a stable sort, non-numeric rows last, and keep
// the first N (N < 1 keeps nothing).
func ApplyNumeric(rs *RecordSet, f NumericFilter) *RecordSet {
	if f.Mode == NumericNone {
		return rs
	}
	c, ok := rs.index[f.Column]
	if !ok {
		return rs
	}

	cmp := func(pred func(float64) bool) *RecordSet {
		return rs.derive(keepRows(rs.rows, func(row Row) bool {
			v, ok := ToFloat(row[c])
			return ok && pred(v)
		}))
	}

	switch f.Mode {
	case NumericGreaterThan:
		return cmp(func(v float64) bool { return v > f.Threshold })
	case NumericLessThan:
		return cmp(func(v float64) bool { return v < f.Threshold })
	case NumericBetween:
		return cmp(func(v float64) bool { return v >= f.Min && v <= f.Max })
	case NumericTopLargest:
		return topN(rs, c, f.N, true)
	case NumericTopSmallest:
		return topN(rs, c, f.N, false)
	default:
		return rs
	}
}

// topN returns the first n rows of rs ordered by column c.
func topN(rs *RecordSet, c, n int, desc bool) *RecordSet {
	if n < 1 {
		return rs.derive(nil)
	}
	idx := make([]int, len(rs.rows))
	keys := make([]float64, len(rs.rows))
	numeric := make([]bool, len(rs.rows))
	for i, row := range rs.rows {
		idx[i] = i
		keys[i], numeric[i] = ToFloat(row[c])
	}

	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if numeric[i] != numeric[j] {
			return numeric[i]
		}
		if !numeric[i] {
			return false
		}
		if desc {
			return keys[i] > keys[j]
		}
		return keys[i] < keys[j]
	})

	if n > len(idx) {
		n = len(idx)
	}
	rows := make([]Row, n)
	for k := 0; k < n; k++ {
		rows[k] = rs.rows[idx[k]]
	}
	return rs.derive(rows)
}

// keepRows returns the rows matching keep, in order, in a fresh slice.
func keepRows(rows []Row, keep func(Row) bool) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
