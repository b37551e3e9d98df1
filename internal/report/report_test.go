package report_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pharmatrack/internal/customer"
	"pharmatrack/internal/report"
	"pharmatrack/internal/store"
	"pharmatrack/internal/testsupport"
)

func TestGenerateWritesWorkbookAndSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	binding, err := customer.Bind(cfg.Customers[0])
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	records := []store.ReportRecord{
		{RowNo: 1, ProductName: "Amoxil", IncludeExclude: "include"},
		{RowNo: 2, ProductName: "Oldine", IncludeExclude: "exclude", Remark: "Withdrawn date is present"},
		{RowNo: 3, ProductName: "Cefix", IncludeExclude: "include"},
	}
	if err := st.ReplaceReportRecords(ctx, binding.Table, run.ID, records); err != nil {
		t.Fatalf("ReplaceReportRecords: %v", err)
	}

	trackerPath := filepath.Join(cfg.InProgressDir(), "Master_Tracker.xlsx")
	testsupport.WriteWorkbook(t, trackerPath, testsupport.Sheet{
		Name:   cfg.Tracker.SheetName,
		Header: cfg.RequiredTrackerColumns(),
		Rows: [][]any{
			{"Amoxil", "Yes", "", "", "", "", "", "verify strength"},
		},
	})

	generator := report.New(st, cfg, nil)
	path, err := generator.Generate(ctx, run.ID, []*customer.Binding{binding}, trackerPath)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Dir(path) != cfg.OutputDir(run.ID) {
		t.Fatalf("report written to %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	countRows, err := f.GetRows("Include_Exclude_Count")
	if err != nil {
		t.Fatalf("count sheet: %v", err)
	}
	if len(countRows) != 2 {
		t.Fatalf("count rows = %v", countRows)
	}
	if countRows[1][0] != "Caplin" || countRows[1][1] != "2" || countRows[1][2] != "1" || countRows[1][3] != "3" {
		t.Fatalf("count row = %v", countRows[1])
	}

	overallRows, err := f.GetRows("Overall_Report")
	if err != nil {
		t.Fatalf("overall sheet: %v", err)
	}
	if len(overallRows) != 2 {
		t.Fatalf("overall rows = %v", overallRows)
	}
	if overallRows[1][0] != "Amoxil" || overallRows[1][1] != "Yes" {
		t.Fatalf("overall row = %v", overallRows[1])
	}

	summary, err := st.SummaryRows(ctx)
	if err != nil {
		t.Fatalf("SummaryRows: %v", err)
	}
	if len(summary) != 1 || summary[0].Include != 2 || summary[0].Exclude != 1 || summary[0].Total != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	overall, err := st.OverallRows(ctx)
	if err != nil {
		t.Fatalf("OverallRows: %v", err)
	}
	if len(overall) != 1 || overall[0].Comment != "verify strength" {
		t.Fatalf("overall snapshot = %+v", overall)
	}
}
