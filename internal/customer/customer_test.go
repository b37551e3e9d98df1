package customer

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pharmatrack/internal/classify"
	"pharmatrack/internal/config"
	"pharmatrack/internal/extract"
	"pharmatrack/internal/textutil"
)

const defaultRemark = "To be added in the Master Tracker"

func newSaltSet(t *testing.T) *textutil.SaltSet {
	t.Helper()
	set, err := textutil.NewSaltSet([]string{"Sodium", "Hydrochloride"})
	if err != nil {
		t.Fatalf("NewSaltSet: %v", err)
	}
	return set
}

func writeWorkbook(t *testing.T, build func(f *excelize.File)) *extract.Workbook {
	t.Helper()
	f := excelize.NewFile()
	build(f)
	path := filepath.Join(t.TempDir(), "customer.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = f.Close()
	wb, err := extract.OpenWorkbook(path)
	if err != nil {
		t.Fatalf("OpenWorkbook: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestParseKind(t *testing.T) {
	for _, tag := range []string{"caplin", "bells", "relonchem", "marksans_usa", "padagis_usa", "padagis_israel"} {
		if _, err := ParseKind(tag); err != nil {
			t.Fatalf("ParseKind(%q): %v", tag, err)
		}
	}
	if _, err := ParseKind("mystery"); err == nil {
		t.Fatal("expected error for unknown extractor")
	}
}

func TestBindRejectsShortColumnList(t *testing.T) {
	_, err := Bind(config.Customer{
		ID: 1, Name: "Caplin", Extractor: "caplin",
		SheetNames: []string{"Products"}, HeaderStart: 2,
		Columns: []string{"S.No", "Product Name"},
	})
	if err == nil {
		t.Fatal("expected error for short column list")
	}
}

func TestProcessCaplin(t *testing.T) {
	wb := writeWorkbook(t, func(f *excelize.File) {
		idx, _ := f.NewSheet("Products")
		f.SetActiveSheet(idx)
		_ = f.SetSheetRow("Products", "A1", &[]any{"S.No", "Product Name", "Strength", "Unit", "Active Ingredients", "Withdrawn Date"})
		_ = f.SetSheetRow("Products", "A2", &[]any{"1", "Amoxil", "500", "mg", "Amoxicillin Sodium", ""})
		_ = f.SetSheetRow("Products", "A3", &[]any{"2", "Oldine", "150", "mg", "Ranitidine Hydrochloride", "2022-03-01"})
	})

	binding, err := Bind(config.Customer{
		ID: 1, Name: "Caplin", Extractor: "caplin",
		SheetNames: []string{"Products"}, HeaderStart: 2,
		Columns: []string{"S.No", "Product Name", "Strength", "Unit", "Active Ingredients", "Withdrawn Date"},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	records, err := binding.Process(wb, newSaltSet(t), defaultRemark)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.RowNo != 1 || first.FilteredName != "Amoxicillin" || first.IncludeExclude != classify.Include {
		t.Fatalf("first record = %+v", first)
	}
	second := records[1]
	if second.IncludeExclude != classify.Exclude || second.Remark != "Withdrawn date is present" {
		t.Fatalf("second record = %+v", second)
	}
}

func TestProcessCaplinSkipsRowsBeforeHeaderStart(t *testing.T) {
	wb := writeWorkbook(t, func(f *excelize.File) {
		idx, _ := f.NewSheet("Products")
		f.SetActiveSheet(idx)
		_ = f.SetSheetRow("Products", "A1", &[]any{"S.No", "Product Name", "Strength", "Unit", "Active Ingredients", "Withdrawn Date"})
		_ = f.SetSheetRow("Products", "A2", &[]any{"", "", "(per tablet)", "", "", ""})
		_ = f.SetSheetRow("Products", "A3", &[]any{"1", "Amoxil", "500", "mg", "Amoxicillin Sodium", ""})
	})

	binding, err := Bind(config.Customer{
		ID: 1, Name: "Caplin", Extractor: "caplin",
		SheetNames: []string{"Products"}, HeaderStart: 3,
		Columns: []string{"S.No", "Product Name", "Strength", "Unit", "Active Ingredients", "Withdrawn Date"},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	records, err := binding.Process(wb, newSaltSet(t), defaultRemark)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the units sub-row to be skipped, got %d records", len(records))
	}
	if records[0].ProductName != "Amoxil" || records[0].Strength != "500" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestProcessPadagisUSA(t *testing.T) {
	wb := writeWorkbook(t, func(f *excelize.File) {
		for _, sheet := range []string{"Own Products", "Contract Manufactured Products"} {
			idx, _ := f.NewSheet(sheet)
			f.SetActiveSheet(idx)
			_ = f.SetSheetRow(sheet, "A1", &[]any{"S.No", "NDC No", "Product Name", "Status", "Comments"})
			_ = f.SetSheetRow(sheet, "A2", &[]any{"1", "0001-01", "Clonidine Hydrochloride", "Active", ""})
		}
	})

	binding, err := Bind(config.Customer{
		ID: 5, Name: "Padagis USA", Extractor: "padagis_usa",
		SheetNames:  []string{"Own Products", "Contract Manufactured Products"},
		HeaderStart: 2,
		Columns:     []string{"S.No", "NDC No", "Product Name", "Status", "Comments"},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	records, err := binding.Process(wb, newSaltSet(t), defaultRemark)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	own := records[0]
	if own.SheetName != "Own Products" || own.IncludeExclude != classify.Include {
		t.Fatalf("own-products record = %+v", own)
	}
	if own.FilteredName != "Clonidine" {
		t.Fatalf("filtered name = %q", own.FilteredName)
	}
	contract := records[1]
	if contract.IncludeExclude != classify.Exclude || contract.Remark != "Not MAH product" {
		t.Fatalf("contract record = %+v", contract)
	}
}

func TestProcessPadagisIsraelIncludesEverything(t *testing.T) {
	wb := writeWorkbook(t, func(f *excelize.File) {
		idx, _ := f.NewSheet("Products")
		f.SetActiveSheet(idx)
		_ = f.SetSheetRow("Products", "A1", &[]any{"S.No", "Active Ingredients"})
		_ = f.SetSheetRow("Products", "A2", &[]any{"1", "Fluticasone"})
		_ = f.SetSheetRow("Products", "A3", &[]any{"2", "Mometasone"})
	})

	binding, err := Bind(config.Customer{
		ID: 6, Name: "Padagis Israel", Extractor: "padagis_israel",
		SheetNames: []string{"Products"}, HeaderStart: 2,
		Columns: []string{"S.No", "Active Ingredients"},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	records, err := binding.Process(wb, newSaltSet(t), defaultRemark)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, record := range records {
		if record.IncludeExclude != classify.Include || record.Remark != defaultRemark {
			t.Fatalf("record = %+v", record)
		}
	}
}
