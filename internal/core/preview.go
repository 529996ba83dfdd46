package core

import (
	"context"
	"fmt"
)

// previewSampleSize is how many valid rows a preview echoes back.
const previewSampleSize = 5

// PreviewSummary counts what an import would do.
type PreviewSummary struct {
	TotalRows int `json:"totalRows"`
	ValidRows int `json:"validRows"`
	ErrorRows int `json:"errorRows"`
	// DuplicateInFile counts rows whose phone already appeared earlier in
	// the same file. Duplicates are allowed; the count is a hint.
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview is one normalized row as it would be stored.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
}

// ImportPreview is the dry-run result of an import.
type ImportPreview struct {
	Summary PreviewSummary `json:"summary"`
	Sample  []RowPreview   `json:"sample"`
	Errors  []RowError     `json:"errors,omitempty"`
}

// CanCommit reports whether ImportCSV would accept the same file.
func (p ImportPreview) CanCommit() bool {
	return p.Summary.TotalRows > 0 && p.Summary.ErrorRows == 0
}

// PreviewImport parses and validates data exactly as ImportCSV does but
// writes nothing. Parse failures are returned as errors; row failures are
// reported in the preview.
func (s *Service) PreviewImport(ctx context.Context, data []byte) (ImportPreview, error) {
	if err := ctx.Err(); err != nil {
		return ImportPreview{}, err
	}

	rows, err := ParseCSV(data, s.cfg.MaxImportRows)
	if err != nil {
		return ImportPreview{}, err
	}
	if len(rows) == 0 {
		return ImportPreview{}, fmt.Errorf("%w: header has no data rows", ErrEmptyInput)
	}

	batch := ValidateBatch(rows)
	preview := ImportPreview{
		Summary: PreviewSummary{
			TotalRows: len(rows),
			ValidRows: batch.ValidCount,
			ErrorRows: len(batch.Errors),
		},
		Sample: []RowPreview{},
		Errors: batch.Errors,
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		fields, errs := validateCSVRow(row)
		if len(errs) > 0 {
			continue
		}
		line := i + firstDataRow
		if seen[fields.Phone] {
			preview.Summary.DuplicateInFile++
		}
		seen[fields.Phone] = true

		if len(preview.Sample) < previewSampleSize {
			preview.Sample = append(preview.Sample, RowPreview{LineNumber: line, Values: previewValues(fields)})
		}
	}
	return preview, nil
}

// previewValues flattens fields into export cell text keyed by column.
func previewValues(f BuyerFields) map[string]string {
	cells := exportCells(Buyer{BuyerFields: f})
	out := make(map[string]string, len(cells))
	for i, c := range cells {
		if c != "" {
			out[CSVColumns[i]] = c
		}
	}
	return out
}
