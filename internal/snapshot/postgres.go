package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/matriculas/internal/core"
)

// Querier is the subset of *pgxpool.Pool the database source uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ReadTable loads every row of a PostgreSQL table, read-only.
func ReadTable(ctx context.Context, q Querier, table string) (*core.RecordSet, error) {
	sql := "SELECT * FROM " + pgx.Identifier(strings.Split(table, ".")).Sanitize()

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var out []core.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan table %s: %w", table, err)
		}
		row := make(core.Row, len(values))
		for i, v := range values {
			row[i] = pgValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}

	return core.NewRecordSet(columns, out)
}

// pgValue converts a decoded PostgreSQL value to a core.Value.
func pgValue(v any) core.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		return numericValue(x)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return core.NormalizeValue(x)
	}
}

// numericValue converts NUMERIC to int64 when integral, else float64.
// NULL and NaN become nil.
func numericValue(n pgtype.Numeric) core.Value {
	if !n.Valid || n.NaN {
		return nil
	}
	if n.Int != nil && n.Exp >= 0 && n.InfinityModifier == pgtype.Finite {
		i := new(big.Int).Set(n.Int)
		i.Mul(i, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
		if i.IsInt64() {
			return i.Int64()
		}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return core.NormalizeValue(f.Float64)
}
