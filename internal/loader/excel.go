package loader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/koba/table-diff/internal/schema"
)

// Excel reads workbooks. The first row of the selected sheet is the header.
type Excel struct{}

func (Excel) Name() string { return "excel" }
func (Excel) Extensions() []string { return []string{".xlsx", ".xls"} }
func (e Excel) CanHandle(name string) bool { return hasExtension(name, e.Extensions()) }

// Options lists the workbook's sheets
func (Excel) Options(f File) (Options, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return Options{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	return Options{Sheets: wb.GetSheetList()}, nil
}

func (Excel) Read(f File, opts ReadOptions) (*schema.Table, error) {
	if opts.Sheet == "" {
		return nil, ErrSheetRequired
	}

	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	if !contains(wb.GetSheetList(), opts.Sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.Sheet)
	}

	rows, err := wb.GetRows(opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", opts.Sheet, err)
	}

	// blank rows are skipped
	var nonEmpty [][]string
	width := 0
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		nonEmpty = append(nonEmpty, row)
		if len(row) > width {
			width = len(row)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, ErrNoColumns
	}

	headers := pad(nonEmpty[0], width)
	records := make([][]string, 0, len(nonEmpty)-1)
	for _, row := range nonEmpty[1:] {
		records = append(records, pad(row, width))
	}

	return schema.FromText(tableName(f, opts.Sheet), uniqueHeaders(headers), records)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// pad extends a row with empty cells, which read as null
func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
