package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/matriculas/internal/core"
)

// CSVOptions control how CSV snapshots are decoded.
type CSVOptions struct {
	Delimiter rune // default ','
	Latin1    bool // decode ISO-8859-1 instead of UTF-8
}

// decoder wraps r so the CSV reader always sees valid UTF-8.
//
// UTF-8 input has its BOM stripped and invalid bytes replaced with U+FFFD;
// latin-1 input is transcoded.
func decoder(r io.Reader, latin1 bool) io.Reader {
	if latin1 {
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadCSVFile loads a CSV snapshot from path.
func ReadCSVFile(path string, opts CSVOptions) (*core.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	rs, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return rs, nil
}

// ReadCSV parses a CSV snapshot. The first record is the header.
// Cells are typed with core.ParseCell; short records are padded with nulls.
func ReadCSV(r io.Reader, opts CSVOptions) (*core.RecordSet, error) {
	cr := csv.NewReader(decoder(r, opts.Latin1))
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = core.CleanCell(h)
	}

	var rows []core.Row
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("csv line %d: %d fields, header has %d", line, len(record), len(columns))
		}

		row := make(core.Row, len(columns))
		for i, cell := range record {
			row[i] = core.ParseCell(cell)
		}
		rows = append(rows, row)
	}

	return core.NewRecordSet(columns, rows)
}
