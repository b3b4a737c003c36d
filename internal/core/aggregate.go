package core

import (
	"math"
	"sort"
)

// AggregateResult holds the formatted summary metrics of one numeric column.
// Undefined metrics are Missing.
type AggregateResult struct {
	Total  string `json:"total"`
	Mean   string `json:"mean"`
	Median string `json:"median"`
	Min    string `json:"min"`
	Max    string `json:"max"`
	StdDev string `json:"std_dev"`
}

// Metric is one named aggregate, in display order.
type Metric struct {
	Name  string
	Value string
}

// Metrics returns the metrics in display order.
func (a AggregateResult) Metrics() []Metric {
	return []Metric{
		{"Total", a.Total},
		{"Mean", a.Mean},
		{"Median", a.Median},
		{"Min", a.Min},
		{"Max", a.Max},
		{"StdDev", a.StdDev},
	}
}

func missingAggregate() AggregateResult {
	return AggregateResult{
		Total:  Missing,
		Mean:   Missing,
		Median: Missing,
		Min:    Missing,
		Max:    Missing,
		StdDev: Missing,
	}
}

// Aggregate computes Total, Mean, Median, Min, Max and sample StdDev over col.
//
// Cells without a numeric reading (null, NaN, text) are skipped. An absent
// column or one with no numeric cell yields Missing for every metric. Each
// metric is computed on its own: one that is not finite (an overflowing
// Total, or StdDev over fewer than two values) is Missing while the others
// still render.
func Aggregate(rs *RecordSet, col string) AggregateResult {
	values := numericColumn(rs, col)
	if len(values) == 0 {
		return missingAggregate()
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	// running mean and squared deviations do not overflow with the sum
	var mean, m2 float64
	for k, v := range values {
		delta := v - mean
		mean += delta / float64(k+1)
		m2 += delta * (v - mean)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	out := AggregateResult{
		Total:  metric(sum),
		Mean:   metric(mean),
		Median: metric(median(sorted)),
		Min:    metric(sorted[0]),
		Max:    metric(sorted[len(sorted)-1]),
		StdDev: Missing,
	}
	if len(values) > 1 {
		out.StdDev = metric(math.Sqrt(m2 / float64(len(values)-1)))
	}
	return out
}

// metric formats one aggregate, Missing when it is not finite.
func metric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return FormatNumber(v)
}

// median of an ascending, non-empty slice.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	a, b := sorted[mid-1], sorted[mid]
	return a + (b-a)/2
}

// numericColumn returns the numeric readings of col, skipping every other cell.
func numericColumn(rs *RecordSet, col string) []float64 {
	if rs == nil {
		return nil
	}
	c, ok := rs.index[col]
	if !ok {
		return nil
	}
	values := make([]float64, 0, len(rs.rows))
	for _, row := range rs.rows {
		if f, ok := ToFloat(row[c]); ok {
			values = append(values, f)
		}
	}
	return values
}

// TopN returns the n rows with the largest value in col, ranked descending.
//
// Only the keep columns present in rs plus col are retained, in that order.
// Every cell is a display string: col through FormatNumber, the rest through
// ToString. n is clamped to the set size; an absent col yields an empty set
// with the projected schema.
func TopN(rs *RecordSet, col string, n int, keep []string) *RecordSet {
	columns := make([]string, 0, len(keep)+1)
	for _, k := range keep {
		if k != col {
			columns = append(columns, k)
		}
	}
	columns = append(columns, col)

	if rs == nil {
		return EmptyRecordSet(columns...)
	}
	if !rs.HasColumn(col) {
		return rs.Project(columns).derive(nil)
	}
	if n > rs.Len() {
		n = rs.Len()
	}

	ranked := ApplyNumeric(rs, NumericFilter{Column: col, Mode: NumericTopLargest, N: n}).Project(columns)
	last := len(ranked.columns) - 1

	rows := make([]Row, len(ranked.rows))
	for i, row := range ranked.rows {
		out := make(Row, len(row))
		for j, v := range row {
			if j == last {
				out[j] = FormatNumber(v)
			} else {
				out[j] = ToString(v)
			}
		}
		rows[i] = out
	}
	return ranked.derive(rows)
}
