// Package extract reads customer workbooks into normalized rows. Header
// rows are discovered by scanning, data ends at the first blank row, and
// colored variants attach a status label derived from cell fills.
package extract

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"pharmatrack/internal/textutil"
)

// headerScanLimit bounds how deep the header search goes. Customer
// workbooks carry at most a few banner rows above the header.
const headerScanLimit = 10

// Row is one extracted data row. Fields follow the configured column order.
type Row struct {
	RowNo       int
	SheetName   string
	Fields      []string
	ColorStatus string
}

// Workbook wraps an open workbook file.
type Workbook struct {
	file *excelize.File
	path string
}

// OpenWorkbook opens a workbook for reading.
func OpenWorkbook(path string) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{file: file, path: path}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// SheetList returns the workbook's sheet names.
func (w *Workbook) SheetList() []string {
	return w.file.GetSheetList()
}

// Rows extracts the configured columns from a sheet. dataStart is the
// 1-based row where data rows begin; zero starts at the row after the
// discovered header, a higher value skips banner or units sub-rows between
// the header and the data.
func (w *Workbook) Rows(sheet string, columns []string, dataStart int) ([]Row, error) {
	return w.extract(sheet, columns, nil, "", dataStart, matchExact)
}

// SubstringRows extracts like Rows but locates header cells by
// case-insensitive substring containment: the header row is the first
// scanned row where any wanted column matches, and every column must then
// resolve in that same row. Tracker headers carry decorations like
// "Comments (if any)".
func (w *Workbook) SubstringRows(sheet string, columns []string) ([]Row, error) {
	return w.extract(sheet, columns, nil, "", 0, matchSubstring)
}

// ColoredRows extracts rows and classifies the fill of the colorColumn cell
// on each row.
func (w *Workbook) ColoredRows(sheet string, columns []string, classifier ColorClassifier, colorColumn string, dataStart int) ([]Row, error) {
	return w.extract(sheet, columns, classifier, colorColumn, dataStart, matchExact)
}

// MultiSheetColoredRows extracts and classifies rows across several sheets,
// tagging each row with its source sheet.
func (w *Workbook) MultiSheetColoredRows(sheets []string, columns []string, classifier ColorClassifier, colorColumn string, dataStart int) ([]Row, error) {
	var all []Row
	for _, sheet := range sheets {
		rows, err := w.extract(sheet, columns, classifier, colorColumn, dataStart, matchExact)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

// headerMode selects how header cells are matched against wanted columns.
type headerMode int

const (
	matchExact headerMode = iota
	matchSubstring
)

// MissingColumnError reports a wanted column absent from a located header
// row. Callers that need the column name for their own message unwrap it
// with errors.As.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found in header row", e.Column)
}

func (w *Workbook) extract(sheet string, columns []string, classifier ColorClassifier, colorColumn string, dataStart int, mode headerMode) ([]Row, error) {
	raw, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	headerIdx, columnCells, err := findHeader(raw, columns, mode)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	colorIdx := -1
	if classifier != nil {
		idx, ok := columnCells[strings.ToLower(colorColumn)]
		if !ok {
			return nil, fmt.Errorf("sheet %q: color column %q is not an extracted column", sheet, colorColumn)
		}
		colorIdx = idx
	}

	start := headerIdx + 1
	if idx := dataStart - 1; idx > start {
		start = idx
	}

	var rows []Row
	for i := start; i < len(raw); i++ {
		fields := make([]string, len(columns))
		blank := true
		for j, column := range columns {
			idx := columnCells[strings.ToLower(column)]
			if idx < len(raw[i]) {
				fields[j] = textutil.FoldLines(raw[i][idx])
			}
			if fields[j] != "" {
				blank = false
			}
		}
		if blank {
			break
		}

		row := Row{RowNo: i + 1, SheetName: sheet, Fields: fields}
		if classifier != nil {
			cell, err := excelize.CoordinatesToCellName(colorIdx+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("cell name for row %d: %w", i+1, err)
			}
			row.ColorStatus = classifier.Classify(w.fillColor(sheet, cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findHeader scans the top of the sheet for the header row. In exact mode
// matching is case-insensitive equality on trimmed cell text and the first
// row where all columns resolve wins. In substring mode the header is the
// first row where any column matches by containment, and a column absent
// from that row is a MissingColumnError.
func findHeader(raw [][]string, columns []string, mode headerMode) (int, map[string]int, error) {
	limit := len(raw)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		if mode == matchSubstring {
			if !rowMatchesAny(raw[i], columns) {
				continue
			}
			mapping := make(map[string]int, len(columns))
			for _, column := range columns {
				idx, ok := findContaining(raw[i], column)
				if !ok {
					return 0, nil, &MissingColumnError{Column: column}
				}
				mapping[strings.ToLower(column)] = idx
			}
			return i, mapping, nil
		}

		cells := make(map[string]int, len(raw[i]))
		for j, cell := range raw[i] {
			key := strings.ToLower(strings.TrimSpace(cell))
			if key == "" {
				continue
			}
			if _, exists := cells[key]; !exists {
				cells[key] = j
			}
		}

		mapping := make(map[string]int, len(columns))
		complete := true
		for _, column := range columns {
			idx, ok := cells[strings.ToLower(strings.TrimSpace(column))]
			if !ok {
				complete = false
				break
			}
			mapping[strings.ToLower(column)] = idx
		}
		if complete {
			return i, mapping, nil
		}
	}

	return 0, nil, fmt.Errorf("header row with columns %v not found in first %d rows", columns, limit)
}

// rowMatchesAny reports whether any cell contains any wanted column name.
func rowMatchesAny(cells []string, columns []string) bool {
	for _, column := range columns {
		if _, ok := findContaining(cells, column); ok {
			return true
		}
	}
	return false
}

// findContaining returns the first cell whose text contains the column
// name, case-insensitively.
func findContaining(cells []string, column string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(column))
	if want == "" {
		return 0, false
	}
	for j, cell := range cells {
		if strings.Contains(strings.ToLower(strings.TrimSpace(cell)), want) {
			return j, true
		}
	}
	return 0, false
}

// fillColor reads a cell's pattern fill. Missing styles or unfilled cells
// return the zero FillColor, which classifies as Unknown only when a row is
// actually checked against a color map.
func (w *Workbook) fillColor(sheet, cell string) FillColor {
	styleID, err := w.file.GetCellStyle(sheet, cell)
	if err != nil {
		return FillColor{}
	}
	style, err := w.file.GetStyle(styleID)
	if err != nil || style == nil {
		return FillColor{}
	}
	if len(style.Fill.Color) == 0 {
		return FillColor{}
	}
	raw := strings.TrimSpace(style.Fill.Color[0])
	if raw == "" {
		return FillColor{}
	}
	if isPaletteToken(raw) {
		return FillColor{Token: raw}
	}
	return FillColor{Hex: raw}
}
