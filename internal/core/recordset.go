package core

import (
	"fmt"
	"sort"
	"strings"
)

// Value is a single cell: nil, string, int64 or float64.
// Loaders normalise narrower numeric types to int64/float64.
type Value = any

// Row is one record, aligned with its RecordSet's column order.
type Row []Value

// TableRow represents a single row of data as key-value pairs.
type TableRow map[string]Value

// RecordSet is an ordered, read-only table of rows sharing a fixed column schema.
//
// A RecordSet is never mutated after construction. Every operation that
// filters, sorts or projects returns a new RecordSet; derived sets may share
// row storage with their parent, which is safe because no row is written
// after load.
type RecordSet struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewRecordSet builds a RecordSet from a column list and rows.
// Every row must have exactly len(columns) values and column names must be unique.
// The RecordSet takes ownership of rows.
func NewRecordSet(columns []string, rows []Row) (*RecordSet, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		index[col] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &RecordSet{columns: cols, index: index, rows: rows}, nil
}

// EmptyRecordSet returns a RecordSet with the given columns and no rows.
func EmptyRecordSet(columns ...string) *RecordSet {
	rs, err := NewRecordSet(columns, nil)
	if err != nil {
		rs, _ = NewRecordSet(nil, nil)
	}
	return rs
}

// derive returns a RecordSet sharing rs's schema with a different row sequence.
func (rs *RecordSet) derive(rows []Row) *RecordSet {
	return &RecordSet{columns: rs.columns, index: rs.index, rows: rows}
}

// Len returns the number of rows. A nil RecordSet has zero rows.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rows)
}

// Columns returns a copy of the column names in order.
func (rs *RecordSet) Columns() []string {
	if rs == nil {
		return nil
	}
	cols := make([]string, len(rs.columns))
	copy(cols, rs.columns)
	return cols
}

// HasColumn reports whether col is part of the schema (exact match).
func (rs *RecordSet) HasColumn(col string) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.index[col]
	return ok
}

// Value returns the cell at row i, column col.
// ok is false when the column does not exist or i is out of range.
func (rs *RecordSet) Value(i int, col string) (Value, bool) {
	if rs == nil || i < 0 || i >= len(rs.rows) {
		return nil, false
	}
	c, ok := rs.index[col]
	if !ok {
		return nil, false
	}
	return rs.rows[i][c], true
}

// Row returns a copy of row i keyed by column name.
func (rs *RecordSet) Row(i int) TableRow {
	if rs == nil || i < 0 || i >= len(rs.rows) {
		return nil
	}
	row := make(TableRow, len(rs.columns))
	for c, col := range rs.columns {
		row[col] = rs.rows[i][c]
	}
	return row
}

// Rows returns copies of every row keyed by column name.
func (rs *RecordSet) Rows() []TableRow {
	out := make([]TableRow, rs.Len())
	for i := range out {
		out[i] = rs.Row(i)
	}
	return out
}

// Slice returns rows [start, end) as a new RecordSet. Bounds are clamped.
func (rs *RecordSet) Slice(start, end int) *RecordSet {
	n := rs.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return rs.derive(nil)
	}
	return rs.derive(rs.rows[start:end:end])
}

// Project returns a RecordSet containing only the named columns, in the given order.
// Columns absent from rs are skipped.
func (rs *RecordSet) Project(columns []string) *RecordSet {
	var keep []string
	var src []int
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		c, ok := rs.index[col]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		keep = append(keep, col)
		src = append(src, c)
	}

	rows := make([]Row, len(rs.rows))
	for i, row := range rs.rows {
		out := make(Row, len(src))
		for j, c := range src {
			out[j] = row[c]
		}
		rows[i] = out
	}

	projected, _ := NewRecordSet(keep, rows)
	return projected
}

// SortBy returns rs ordered by col. The sort is stable: rows with equal keys keep
// their relative order. Rows whose value in col is not numeric are placed last.
// A missing column returns rs unchanged.
func (rs *RecordSet) SortBy(col string, desc bool) *RecordSet {
	c, ok := rs.index[col]
	if !ok {
		return rs
	}

	type keyed struct {
		row     Row
		key     float64
		numeric bool
	}
	items := make([]keyed, len(rs.rows))
	for i, row := range rs.rows {
		f, ok := ToFloat(row[c])
		items[i] = keyed{row: row, key: f, numeric: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.numeric != b.numeric {
			return a.numeric
		}
		if !a.numeric {
			return false
		}
		if desc {
			return a.key > b.key
		}
		return a.key < b.key
	})

	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = it.row
	}
	return rs.derive(rows)
}

// DistinctValues returns the distinct string forms of col in first-seen order,
// skipping nulls. Used to build year and network option lists.
func (rs *RecordSet) DistinctValues(col string) []string {
	c, ok := rs.index[col]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range rs.rows {
		if row[c] == nil {
			continue
		}
		s := ToString(row[c])
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// lookupColumn finds col exactly, then case-insensitively.
func lookupColumn(columns []string, col string) (string, bool) {
	for _, c := range columns {
		if c == col {
			return c, true
		}
	}
	for _, c := range columns {
		if strings.EqualFold(c, col) {
			return c, true
		}
	}
	return col, false
}
