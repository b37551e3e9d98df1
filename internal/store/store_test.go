package store_test

import (
	"context"
	"errors"
	"testing"

	"pharmatrack/internal/store"
	"pharmatrack/internal/testsupport"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenStore(t, cfg)
}

func TestRunTransitionsAdvanceOneStep(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != store.StatusInitiated {
		t.Fatalf("new run status = %s", run.Status)
	}
	if run.EndTime != nil {
		t.Fatal("new run has end time")
	}

	// Skipping a step is rejected.
	if _, err := st.Transition(ctx, run.ID, store.StatusValidationInitiated, ""); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	for _, next := range []store.Status{
		store.StatusFileMoved,
		store.StatusValidationInitiated,
		store.StatusValidationCompleted,
		store.StatusCompleted,
	} {
		run, err = st.Transition(ctx, run.ID, next, "")
		if err != nil {
			t.Fatalf("Transition to %s: %v", next, err)
		}
		if run.Status != next {
			t.Fatalf("status = %s, want %s", run.Status, next)
		}
	}

	if run.EndTime == nil {
		t.Fatal("completed run missing end time")
	}

	// Terminal runs are immutable.
	if _, err := st.Transition(ctx, run.ID, store.StatusFailed, "late"); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after terminal, got %v", err)
	}
}

func TestRunFailsFromAnyNonTerminalState(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if _, err := st.Transition(ctx, run.ID, store.StatusFileMoved, ""); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	run, err = st.Transition(ctx, run.ID, store.StatusFailed, "tracker invalid")
	if err != nil {
		t.Fatalf("Transition to Failed: %v", err)
	}
	if run.Status != store.StatusFailed || run.ErrorMessage != "tracker invalid" {
		t.Fatalf("failed run = %+v", run)
	}
	if run.EndTime == nil {
		t.Fatal("failed run missing end time")
	}
}

func TestSetTrackerFileAndListRuns(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	first, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := st.SetTrackerFile(ctx, first.ID, "Master_Tracker.xlsx"); err != nil {
		t.Fatalf("SetTrackerFile: %v", err)
	}
	second, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	runs, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[1].TrackerFile != "Master_Tracker.xlsx" {
		t.Fatalf("tracker file = %q", runs[1].TrackerFile)
	}

	limited, err := st.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Fatalf("limited runs = %+v", limited)
	}
}

func TestCustomerLogLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	good, err := st.BeginCustomerFile(ctx, run.ID, 1, "Caplin", "caplin.xlsx")
	if err != nil {
		t.Fatalf("BeginCustomerFile: %v", err)
	}
	if good.Status != store.FileInitiated || good.StartedAt.IsZero() {
		t.Fatalf("new entry = %+v", good)
	}

	bad, err := st.BeginCustomerFile(ctx, run.ID, 2, "Bells", "bells.xlsx")
	if err != nil {
		t.Fatalf("BeginCustomerFile: %v", err)
	}

	if err := st.CompleteCustomerFile(ctx, good.ID); err != nil {
		t.Fatalf("CompleteCustomerFile: %v", err)
	}
	if err := st.FailCustomerFile(ctx, bad.ID, "Failed while processing Bells customer - bells.xlsx"); err != nil {
		t.Fatalf("FailCustomerFile: %v", err)
	}

	completed, err := st.CustomerFilesForRun(ctx, run.ID, store.FileCompleted)
	if err != nil {
		t.Fatalf("CustomerFilesForRun: %v", err)
	}
	if len(completed) != 1 || completed[0].CustomerName != "Caplin" || completed[0].FinishedAt == nil {
		t.Fatalf("completed = %+v", completed)
	}

	failed, err := st.CustomerFilesForRun(ctx, run.ID, store.FileFailed)
	if err != nil {
		t.Fatalf("CustomerFilesForRun: %v", err)
	}
	if len(failed) != 1 || failed[0].Message != "Failed while processing Bells customer - bells.xlsx" {
		t.Fatalf("failed = %+v", failed)
	}
}

func TestReplaceReportRecordsIsIdempotent(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	table, err := store.ReportTableFor("caplin")
	if err != nil {
		t.Fatalf("ReportTableFor: %v", err)
	}

	first := []store.ReportRecord{
		{RowNo: 1, ProductName: "Amoxil", IncludeExclude: "include"},
		{RowNo: 2, ProductName: "Oldine", IncludeExclude: "exclude", Remark: "Withdrawn date is present"},
	}
	if err := st.ReplaceReportRecords(ctx, table, run.ID, first); err != nil {
		t.Fatalf("ReplaceReportRecords: %v", err)
	}

	// A retry replaces, never appends.
	second := first[:1]
	if err := st.ReplaceReportRecords(ctx, table, run.ID, second); err != nil {
		t.Fatalf("ReplaceReportRecords retry: %v", err)
	}

	counts, err := st.CountReportRecords(ctx, table, run.ID)
	if err != nil {
		t.Fatalf("CountReportRecords: %v", err)
	}
	if counts.Include != 1 || counts.Exclude != 0 || counts.Total != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestReportCountsAreScopedToRun(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	table, err := store.ReportTableFor("bells")
	if err != nil {
		t.Fatalf("ReportTableFor: %v", err)
	}

	first, _ := st.StartRun(ctx)
	second, _ := st.StartRun(ctx)

	if err := st.ReplaceReportRecords(ctx, table, first.ID, []store.ReportRecord{
		{RowNo: 1, IncludeExclude: "include"},
	}); err != nil {
		t.Fatalf("ReplaceReportRecords: %v", err)
	}
	if err := st.ReplaceReportRecords(ctx, table, second.ID, []store.ReportRecord{
		{RowNo: 1, IncludeExclude: "exclude"},
		{RowNo: 2, IncludeExclude: "exclude"},
	}); err != nil {
		t.Fatalf("ReplaceReportRecords: %v", err)
	}

	counts, err := st.CountReportRecords(ctx, table, second.ID)
	if err != nil {
		t.Fatalf("CountReportRecords: %v", err)
	}
	if counts.Include != 0 || counts.Exclude != 2 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestReplaceSummaryTruncatesAndRewrites(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	stale := []store.SummaryRow{{CustomerName: "Old", Include: 9, Exclude: 9, Total: 18}}
	if err := st.ReplaceSummary(ctx, run.ID, stale, nil); err != nil {
		t.Fatalf("ReplaceSummary: %v", err)
	}

	fresh := []store.SummaryRow{{CustomerName: "Caplin", Include: 3, Exclude: 1, Total: 4}}
	overall := []store.OverallRow{
		{RowNo: 2, ProductName: "Amoxil", Values: map[string]string{"Caplin": "Yes"}, Comment: "check"},
	}
	if err := st.ReplaceSummary(ctx, run.ID, fresh, overall); err != nil {
		t.Fatalf("ReplaceSummary: %v", err)
	}

	summary, err := st.SummaryRows(ctx)
	if err != nil {
		t.Fatalf("SummaryRows: %v", err)
	}
	if len(summary) != 1 || summary[0].CustomerName != "Caplin" || summary[0].Total != 4 {
		t.Fatalf("summary = %+v", summary)
	}

	rows, err := st.OverallRows(ctx)
	if err != nil {
		t.Fatalf("OverallRows: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductName != "Amoxil" || rows[0].Values["Caplin"] != "Yes" {
		t.Fatalf("overall = %+v", rows)
	}
}

func TestSyncRegistryIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SyncRegistry(ctx, cfg); err != nil {
		t.Fatalf("SyncRegistry: %v", err)
	}
	if err := st.SyncRegistry(ctx, cfg); err != nil {
		t.Fatalf("SyncRegistry again: %v", err)
	}

	salts, err := st.ExcludedSalts(ctx)
	if err != nil {
		t.Fatalf("ExcludedSalts: %v", err)
	}
	if len(salts) != len(cfg.ExcludedSalts) {
		t.Fatalf("salts = %v", salts)
	}
}
