package core

// csvparse.go turns raw import bytes into header-keyed rows.
//
// Parsing is independent of validation: cells are returned as text and only
// cleaned of spreadsheet artifacts. Quoted fields may contain commas and
// newlines.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxImportRows is the data row ceiling for one import file.
const DefaultMaxImportRows = 200

// CSVColumns is the canonical column order, shared by import and export.
var CSVColumns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "notes", "tags", "status",
}

// RequiredCSVColumns must be present in an import header.
var RequiredCSVColumns = []string{
	"fullName", "phone", "city", "propertyType", "purpose", "timeline", "source",
}

// CSVRow maps canonical column names to raw cell text.
type CSVRow map[string]string

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// columnIndex maps lowercased header names to canonical names.
var columnIndex = func() map[string]string {
	m := make(map[string]string, len(CSVColumns))
	for _, c := range CSVColumns {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// ParseCSV splits data into rows keyed by header name.
//
// Blank (whitespace-only) lines are skipped. Header names match case-insensitively; unknown
// columns are ignored. Rows shorter than the header get "" for the missing
// trailing cells. maxRows <= 0 means DefaultMaxImportRows.
//
// Returns ErrEmptyInput when there is no non-blank line and ErrBatchTooLarge
// as soon as the data row count passes maxRows.
func ParseCSV(data []byte, maxRows int) ([]CSVRow, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxImportRows
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("\uFFFD"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var header []string
	rows := make([]CSVRow, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if header == nil {
			header = headerKeys(rec)
			continue
		}
		if len(rows) == maxRows {
			return nil, fmt.Errorf("%w: more than %d data rows", ErrBatchTooLarge, maxRows)
		}
		rows = append(rows, makeRow(header, rec))
	}

	if header == nil {
		return nil, ErrEmptyInput
	}
	return rows, nil
}

// headerKeys resolves each header cell to a canonical column, or "" if unknown.
func headerKeys(rec []string) []string {
	keys := make([]string, len(rec))
	for i, h := range rec {
		keys[i] = columnIndex[strings.ToLower(cleanCell(h))]
	}
	return keys
}

func makeRow(header, rec []string) CSVRow {
	row := make(CSVRow, len(header))
	for i, key := range header {
		if key == "" {
			continue
		}
		if _, dup := row[key]; dup {
			continue
		}
		var v string
		if i < len(rec) {
			v = cleanCell(rec[i])
		}
		row[key] = v
	}
	return row
}

// cleanCell trims whitespace and unwraps Excel's ="..." text guard, which
// spreadsheets add to keep long phone numbers from turning into floats.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// isBlankRecord reports whether the line held nothing but whitespace. A line
// of bare delimiters such as ",," is a row with empty cells, not a blank line.
func isBlankRecord(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}
