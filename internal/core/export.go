package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Placeholder payloads returned instead of an empty or failed export.
const (
	EmptyExportText      = "no data\n"
	ConversionErrorText  = "conversion error\n"
	placeholderSheetName = "No data"
	dataSheetName        = "Data"
)

// ExportFilename returns "<dataset>_<yyyymmdd_hhmmss>.<ext>".
func ExportFilename(dataset, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", dataset, at.Format("20060102_150405"), ext)
}

// ToDelimitedText renders rs as comma-separated UTF-8 text with a header row.
//
// An empty rs yields EmptyExportText. Any failure yields ConversionErrorText
// and an error wrapping ErrConversion; the payload is never nil.
func ToDelimitedText(rs *RecordSet) (payload []byte, err error) {
	if rs.Len() == 0 {
		return []byte(EmptyExportText), nil
	}

	defer func() {
		if r := recover(); r != nil {
			payload = []byte(ConversionErrorText)
			err = fmt.Errorf("%w: csv: %v", ErrConversion, r)
		}
	}()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rs.columns); err != nil {
		return []byte(ConversionErrorText), fmt.Errorf("%w: csv header: %v", ErrConversion, err)
	}

	record := make([]string, len(rs.columns))
	for _, row := range rs.rows {
		for i, v := range row {
			record[i] = ToString(v)
		}
		if err := w.Write(record); err != nil {
			return []byte(ConversionErrorText), fmt.Errorf("%w: csv row: %v", ErrConversion, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return []byte(ConversionErrorText), fmt.Errorf("%w: csv flush: %v", ErrConversion, err)
	}
	return buf.Bytes(), nil
}

// ToSpreadsheet renders rs as a single-sheet xlsx workbook.
//
// Numeric cells are written as numbers. An empty rs yields a workbook with
// one placeholder sheet. Any failure yields a placeholder workbook and an
// error wrapping ErrConversion; the payload is never nil.
func ToSpreadsheet(rs *RecordSet) (payload []byte, err error) {
	if rs.Len() == 0 {
		return placeholderWorkbook(EmptyExportText), nil
	}

	defer func() {
		if r := recover(); r != nil {
			payload = placeholderWorkbook(ConversionErrorText)
			err = fmt.Errorf("%w: xlsx: %v", ErrConversion, r)
		}
	}()

	data, err := writeWorkbook(rs)
	if err != nil {
		return placeholderWorkbook(ConversionErrorText), fmt.Errorf("%w: xlsx: %v", ErrConversion, err)
	}
	return data, nil
}

func writeWorkbook(rs *RecordSet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheetName); err != nil {
		return nil, err
	}

	head := make([]any, len(rs.columns))
	for i, c := range rs.columns {
		head[i] = c
	}
	if err := f.SetSheetRow(dataSheetName, "A1", &head); err != nil {
		return nil, err
	}

	for i, row := range rs.rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = spreadsheetCell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(dataSheetName, cell, &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func spreadsheetCell(v Value) any {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return x
	default:
		return ToString(x)
	}
}

// placeholderWorkbook returns a one-sheet workbook whose A1 holds msg.
// If even that cannot be produced, msg itself is returned.
func placeholderWorkbook(msg string) []byte {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", placeholderSheetName); err != nil {
		slog.Error("placeholder workbook", "error", err)
		return []byte(msg)
	}
	if err := f.SetCellStr(placeholderSheetName, "A1", strings.TrimSpace(msg)); err != nil {
		slog.Error("placeholder workbook", "error", err)
		return []byte(msg)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("placeholder workbook", "error", err)
		return []byte(msg)
	}
	return buf.Bytes()
}
