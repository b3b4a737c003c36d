package snapshot

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/matriculas/internal/core"
)

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
	err    error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Scan(...any) error                            { return errors.New("not supported") }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

// fakeQuerier serves the same rows to every query and records the SQL.
type fakeQuerier struct {
	columns []string
	values  [][]any
	err     error
	queries []string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, sql)
	if q.err != nil {
		return nil, q.err
	}
	fields := make([]pgconn.FieldDescription, len(q.columns))
	for i, c := range q.columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, values: q.values}, nil
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func TestReadTable(t *testing.T) {
	q := &fakeQuerier{
		columns: []string{"SG_UF", "NU_ANO_CENSO", "QT_MAT", "PC_REDE", "DT_CARGA"},
		values: [][]any{
			{"PE", int32(2021), numeric("1500"), numeric("12.5"), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
			{"SP", int32(2022), nil, pgtype.Numeric{}, nil},
		},
	}

	rs, err := ReadTable(context.Background(), q, "censo.matriculas_estados")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	if diff := cmp.Diff([]string{`SELECT * FROM "censo"."matriculas_estados"`}, q.queries); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	want := []core.TableRow{
		{"SG_UF": "PE", "NU_ANO_CENSO": int64(2021), "QT_MAT": int64(1500), "PC_REDE": 12.5, "DT_CARGA": "2024-05-02"},
		{"SG_UF": "SP", "NU_ANO_CENSO": int64(2022), "QT_MAT": nil, "PC_REDE": nil, "DT_CARGA": nil},
	}
	if diff := cmp.Diff(want, rs.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTable_QuotesIdentifiers(t *testing.T) {
	q := &fakeQuerier{}
	if _, err := ReadTable(context.Background(), q, `x"; DROP TABLE y; --`); err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if !strings.HasPrefix(q.queries[0], `SELECT * FROM "x""; DROP TABLE y; --"`) {
		t.Errorf("identifier not quoted: %s", q.queries[0])
	}
}

func TestReadTable_QueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection refused")}
	if _, err := ReadTable(context.Background(), q, "t"); err == nil || !strings.Contains(err.Error(), "query table t") {
		t.Errorf("ReadTable() error = %v", err)
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name string
		in   pgtype.Numeric
		want core.Value
	}{
		{"integer", numeric("42"), int64(42)},
		{"positive exponent", pgtype.Numeric{Int: big.NewInt(15), Exp: 2, Valid: true}, int64(1500)},
		{"fraction", numeric("0.25"), 0.25},
		{"null", pgtype.Numeric{}, nil},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, numericValue(tt.in)); diff != "" {
				t.Errorf("numericValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
