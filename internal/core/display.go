package core

// DisplayTable projects rs onto columns for presentation.
//
// raw is the projection sorted descending by sortCol (stable, non-numeric
// values last) with its values untouched. display has the same rows and
// schema, but sortCol is rendered with FormatNumber and every percentCols
// entry with FormatPercent. An empty columns list keeps every column.
func DisplayTable(rs *RecordSet, columns []string, sortCol string, percentCols []string) (raw, display *RecordSet) {
	if len(columns) == 0 {
		columns = rs.Columns()
	}
	raw = rs.SortBy(sortCol, true).Project(columns)
	return raw, FormatDisplay(raw, sortCol, percentCols)
}

// FormatDisplay returns a copy of rs with valueCol rendered by FormatNumber and
// every percentCols entry by FormatPercent. Row order is kept.
func FormatDisplay(rs *RecordSet, valueCol string, percentCols []string) *RecordSet {
	raw := rs
	formatters := make(map[int]func(Value) string)
	for _, col := range percentCols {
		if c, ok := raw.index[col]; ok {
			formatters[c] = FormatPercent
		}
	}
	if c, ok := raw.index[valueCol]; ok {
		formatters[c] = FormatNumber
	}

	rows := make([]Row, len(raw.rows))
	for i, row := range raw.rows {
		out := make(Row, len(row))
		copy(out, row)
		for c, format := range formatters {
			out[c] = format(row[c])
		}
		rows[i] = out
	}
	return raw.derive(rows)
}
