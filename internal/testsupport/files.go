package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pharmatrack/internal/config"
)

// Sheet describes one worksheet for a fixture workbook: a header row
// followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// WriteWorkbook creates an xlsx file at path from the given sheets. The
// default Sheet1 is removed so only the named sheets remain.
func WriteWorkbook(t testing.TB, path string, sheets ...Sheet) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	f := excelize.NewFile()
	for _, sheet := range sheets {
		idx, err := f.NewSheet(sheet.Name)
		if err != nil {
			t.Fatalf("new sheet %s: %v", sheet.Name, err)
		}
		f.SetActiveSheet(idx)

		header := make([]any, len(sheet.Header))
		for i, col := range sheet.Header {
			header[i] = col
		}
		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			t.Fatalf("write header %s: %v", sheet.Name, err)
		}
		for i, row := range sheet.Rows {
			cell := fmt.Sprintf("A%d", i+2)
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("write row %s!%s: %v", sheet.Name, cell, err)
			}
		}
	}
	if len(sheets) > 0 && sheets[0].Name != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook %s: %v", path, err)
	}
	_ = f.Close()
}

// WriteTracker drops a minimal valid master tracker into the intake area
// and returns its path.
func WriteTracker(t testing.TB, cfg *config.Config, rows ...[]any) string {
	t.Helper()

	path := filepath.Join(cfg.IntakeTrackerDir(), "Master_Tracker.xlsx")
	WriteWorkbook(t, path, Sheet{
		Name:   cfg.Tracker.SheetName,
		Header: cfg.RequiredTrackerColumns(),
		Rows:   rows,
	})
	return path
}

// DropCustomerFile places a fixture workbook in a customer's intake
// directory and returns its path.
func DropCustomerFile(t testing.TB, cfg *config.Config, customerName, fileName string, sheets ...Sheet) string {
	t.Helper()

	path := filepath.Join(cfg.CustomerIntakeDir(customerName), fileName)
	WriteWorkbook(t, path, sheets...)
	return path
}
