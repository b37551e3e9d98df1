// Package tracker validates and reads the master tracker workbook.
package tracker

import (
	"errors"
	"fmt"
	"strings"

	"pharmatrack/internal/config"
	"pharmatrack/internal/extract"
	"pharmatrack/internal/store"
)

// wrongTrackerMessage is the operator-facing message for every structural
// validation failure; the missing sheet or column name is appended.
const wrongTrackerMessage = "Wrong Master Tracker File - Column/Sheet not found"

// Validate checks the workbook has the configured sheet and that the header
// carries the product column, every customer column, and the comment column.
// Header cells match column names by case-insensitive substring, so a
// decorated header like "Comments (if any)" still satisfies "Comments".
func Validate(path string, cfg *config.Config) error {
	wb, err := extract.OpenWorkbook(path)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	sheet, ok := resolveSheet(wb, cfg.Tracker.SheetName)
	if !ok {
		return fmt.Errorf("%s: Sheet %q", wrongTrackerMessage, cfg.Tracker.SheetName)
	}

	if _, err := wb.SubstringRows(sheet, cfg.RequiredTrackerColumns()); err != nil {
		var missing *extract.MissingColumnError
		if errors.As(err, &missing) {
			return fmt.Errorf("%s: Column %q", wrongTrackerMessage, missing.Column)
		}
		return fmt.Errorf("%s: %v", wrongTrackerMessage, err)
	}
	return nil
}

// ReadRows extracts the tracker's product, customer and comment columns for
// the overall report snapshot.
func ReadRows(path string, cfg *config.Config) ([]store.OverallRow, error) {
	wb, err := extract.OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	sheet, ok := resolveSheet(wb, cfg.Tracker.SheetName)
	if !ok {
		return nil, fmt.Errorf("%s: Sheet %q", wrongTrackerMessage, cfg.Tracker.SheetName)
	}

	columns := cfg.RequiredTrackerColumns()
	rows, err := wb.SubstringRows(sheet, columns)
	if err != nil {
		return nil, err
	}

	customerCount := len(cfg.Tracker.CustomerColumns)
	overall := make([]store.OverallRow, 0, len(rows))
	for _, row := range rows {
		entry := store.OverallRow{
			RowNo:       row.RowNo,
			ProductName: row.Fields[0],
			Values:      make(map[string]string, customerCount),
			Comment:     row.Fields[len(row.Fields)-1],
		}
		for i, column := range cfg.Tracker.CustomerColumns {
			entry.Values[column] = row.Fields[1+i]
		}
		overall = append(overall, entry)
	}
	return overall, nil
}

// resolveSheet matches the configured sheet name case-insensitively and
// returns the workbook's actual spelling.
func resolveSheet(wb *extract.Workbook, name string) (string, bool) {
	for _, sheet := range wb.SheetList() {
		if strings.EqualFold(strings.TrimSpace(sheet), strings.TrimSpace(name)) {
			return sheet, true
		}
	}
	return "", false
}
