package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// exportSheet is the worksheet name used by ExportXLSX.
const exportSheet = "Buyers"

// exportBuyers loads every buyer matching q. Without a caller sort the order
// is updatedAt ascending; stores always break ties by id ascending.
func (s *Service) exportBuyers(ctx context.Context, q ListQuery) ([]Buyer, error) {
	q, err := s.normalizeQuery(q, true)
	if err != nil {
		return nil, err
	}
	if q.Sort == nil {
		q.Sort = &SortSpec{Field: SortUpdatedAt}
	}
	buyers, _, err := s.store.ListBuyers(ctx, q)
	if err != nil {
		return nil, persistence("export buyers", err)
	}
	return buyers, nil
}

// ExportCSV writes buyers matching q as CSV and returns the row count.
//
// The header row lists CSVColumns. Every data cell is double-quoted with
// embedded quotes doubled, and tags are joined with ";".
func (s *Service) ExportCSV(ctx context.Context, q ListQuery, w io.Writer) (int, error) {
	buyers, err := s.exportBuyers(ctx, q)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(CSVColumns, ","))
	bw.WriteByte('\n')
	for _, b := range buyers {
		for i, cell := range exportCells(b) {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(quoteCell(cell))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(buyers), nil
}

// ExportXLSX writes buyers matching q as a single-sheet workbook.
func (s *Service) ExportXLSX(ctx context.Context, q ListQuery, w io.Writer) (int, error) {
	buyers, err := s.exportBuyers(ctx, q)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(CSVColumns))
	for i, c := range CSVColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i, b := range buyers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := xlsxRow(b)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(buyers), nil
}

// exportCells returns b's values in CSVColumns order.
func exportCells(b Buyer) []string {
	return []string{
		b.FullName,
		optString(b.Email),
		b.Phone,
		b.City,
		b.PropertyType,
		optString(b.BHK),
		b.Purpose,
		optInt(b.BudgetMin),
		optInt(b.BudgetMax),
		b.Timeline,
		b.Source,
		optString(b.Notes),
		strings.Join(b.Tags, ";"),
		b.Status,
	}
}

// xlsxRow is exportCells with budgets kept numeric.
func xlsxRow(b Buyer) []any {
	cells := exportCells(b)
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	if b.BudgetMin != nil {
		row[7] = *b.BudgetMin
	}
	if b.BudgetMax != nil {
		row[8] = *b.BudgetMax
	}
	return row
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func optString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
