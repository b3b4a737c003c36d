package core

// DefaultMaxPageSize bounds the page size when no maximum is configured.
const DefaultMaxPageSize = 10000

// Paginator describes one page of a record set.
//
// Paginator is a value: every With* method returns a re-clamped copy, so
// 1 <= Page() <= TotalPages() and 0 <= Start() <= End() <= TotalRows() hold
// after any transition.
type Paginator struct {
	totalRows   int
	pageSize    int
	current     int
	maxPageSize int
}

// NewPaginator builds a Paginator, clamping pageSize to [1, maxPageSize] and
// current to [1, TotalPages()]. maxPageSize < 1 means DefaultMaxPageSize.
func NewPaginator(totalRows, pageSize, current, maxPageSize int) Paginator {
	if maxPageSize < 1 {
		maxPageSize = DefaultMaxPageSize
	}
	p := Paginator{maxPageSize: maxPageSize, current: current}
	p.totalRows = max(totalRows, 0)
	p.pageSize = min(max(pageSize, 1), maxPageSize)
	p.clamp()
	return p
}

func (p *Paginator) clamp() {
	p.current = min(max(p.current, 1), p.TotalPages())
}

// TotalRows returns the number of rows being paged.
func (p Paginator) TotalRows() int { return p.totalRows }

// PageSize returns the clamped page size.
func (p Paginator) PageSize() int { return p.pageSize }

// Page returns the current page, 1-based.
func (p Paginator) Page() int { return p.current }

// TotalPages is max(1, ceil(TotalRows / PageSize)).
func (p Paginator) TotalPages() int {
	if p.totalRows == 0 {
		return 1
	}
	return (p.totalRows + p.pageSize - 1) / p.pageSize
}

// Start is the offset of the first row on the current page.
func (p Paginator) Start() int {
	return min((p.current-1)*p.pageSize, p.totalRows)
}

// End is the exclusive offset of the last row on the current page.
func (p Paginator) End() int {
	return min(p.Start()+p.pageSize, p.totalRows)
}

// WithPage moves to page, clamped into range.
func (p Paginator) WithPage(page int) Paginator {
	p.current = page
	p.clamp()
	return p
}

// WithPageSize changes the page size and re-clamps the current page.
func (p Paginator) WithPageSize(size int) Paginator {
	p.pageSize = min(max(size, 1), p.maxPageSize)
	p.clamp()
	return p
}

// WithTotalRows changes the row count and re-clamps the current page.
func (p Paginator) WithTotalRows(n int) Paginator {
	p.totalRows = max(n, 0)
	p.clamp()
	return p
}

// Slice returns rows [Start, End) of rs. rs should have TotalRows rows.
func (p Paginator) Slice(rs *RecordSet) *RecordSet {
	return rs.Slice(p.Start(), p.End())
}
