package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/JonMunkholm/matriculas/internal/core"
)

// ReadParquetFile loads a parquet snapshot from path.
func ReadParquetFile(ctx context.Context, path string) (*core.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	defer tbl.Release()

	rs, err := FromArrowTable(tbl)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rs, nil
}

// FromArrowTable copies an arrow table into a RecordSet.
func FromArrowTable(tbl arrow.Table) (*core.RecordSet, error) {
	nrows := int(tbl.NumRows())
	ncols := int(tbl.NumCols())

	columns := make([]string, ncols)
	rows := make([]core.Row, nrows)
	for i := range rows {
		rows[i] = make(core.Row, ncols)
	}

	for c := 0; c < ncols; c++ {
		col := tbl.Column(c)
		columns[c] = col.Name()

		offset := 0
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				v, err := cellValue(chunk, i)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", col.Name(), offset+i, err)
				}
				rows[offset+i][c] = v
			}
			offset += chunk.Len()
		}
	}

	return core.NewRecordSet(columns, rows)
}

// cellValue reads element i of arr as a core.Value.
// Dictionary (categorical) columns resolve to their dictionary value.
func cellValue(arr arrow.Array, i int) (core.Value, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		return core.NormalizeValue(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Float64:
		return core.NormalizeValue(a.Value(i)), nil
	case *array.Float32:
		return core.NormalizeValue(a.Value(i)), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Boolean:
		return core.NormalizeValue(a.Value(i)), nil
	case *array.Dictionary:
		return cellValue(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i), nil
	}
}
