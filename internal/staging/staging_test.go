package staging

import (
	"os"
	"path/filepath"
	"testing"

	"pharmatrack/internal/config"
)

func newStager(t *testing.T) (*Stager, *config.Config) {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return New(&cfg, nil), &cfg
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("workbook"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestFindTracker(t *testing.T) {
	stager, cfg := newStager(t)

	if _, ok, err := stager.FindTracker(); err != nil || ok {
		t.Fatalf("expected no tracker, ok=%v err=%v", ok, err)
	}

	writeFile(t, filepath.Join(cfg.IntakeTrackerDir(), "~$lock.xlsx"))
	writeFile(t, filepath.Join(cfg.IntakeTrackerDir(), "notes.txt"))
	want := writeFile(t, filepath.Join(cfg.IntakeTrackerDir(), "Master_Tracker.xlsx"))

	got, ok, err := stager.FindTracker()
	if err != nil || !ok {
		t.Fatalf("FindTracker: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("tracker = %q, want %q", got, want)
	}
}

func TestStageTrackerClearsInProgress(t *testing.T) {
	stager, cfg := newStager(t)

	leftover := writeFile(t, filepath.Join(cfg.InProgressDir(), "stale.xlsx"))
	tracker := writeFile(t, filepath.Join(cfg.IntakeTrackerDir(), "Master_Tracker.xlsx"))

	staged, err := stager.StageTracker(tracker)
	if err != nil {
		t.Fatalf("StageTracker: %v", err)
	}
	if _, err := os.Stat(staged); err != nil {
		t.Fatalf("staged tracker missing: %v", err)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("leftover not cleared: %v", err)
	}
	if _, err := os.Stat(tracker); !os.IsNotExist(err) {
		t.Fatal("tracker still in intake")
	}
}

func TestStageCustomerFileClearsCustomerSubdir(t *testing.T) {
	stager, cfg := newStager(t)

	stale := writeFile(t, filepath.Join(cfg.InProgressDir(), "Caplin", "old.xlsx"))
	src := writeFile(t, filepath.Join(cfg.CustomerIntakeDir("Caplin"), "caplin_products.xlsx"))

	staged, err := stager.StageCustomerFile("Caplin", src)
	if err != nil {
		t.Fatalf("StageCustomerFile: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale file not cleared")
	}
	if filepath.Base(staged) != "caplin_products.xlsx" {
		t.Fatalf("staged = %q", staged)
	}
}

func TestFinalizeConservesFile(t *testing.T) {
	stager, cfg := newStager(t)

	staged := writeFile(t, filepath.Join(cfg.InProgressDir(), "Bells", "bells.xlsx"))
	processed, err := stager.FinalizeProcessed(7, "Bells", staged)
	if err != nil {
		t.Fatalf("FinalizeProcessed: %v", err)
	}
	if _, err := os.Stat(processed); err != nil {
		t.Fatalf("processed file missing: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("file duplicated instead of moved")
	}

	staged2 := writeFile(t, filepath.Join(cfg.InProgressDir(), "Relonchem", "relonchem.xlsx"))
	failed, err := stager.FinalizeFailed(7, "Relonchem", staged2)
	if err != nil {
		t.Fatalf("FinalizeFailed: %v", err)
	}
	if filepath.Dir(failed) != filepath.Join(cfg.FailedDir(7), "Relonchem") {
		t.Fatalf("failed path = %q", failed)
	}
}

func TestRouteRunToFailed(t *testing.T) {
	stager, cfg := newStager(t)

	tracker := writeFile(t, filepath.Join(cfg.InProgressDir(), "Master_Tracker.xlsx"))
	writeFile(t, filepath.Join(cfg.OutputDir(3), "Report_3.xlsx"))

	attachment, err := stager.RouteRunToFailed(3, tracker)
	if err != nil {
		t.Fatalf("RouteRunToFailed: %v", err)
	}
	if attachment == "" {
		t.Fatal("expected tracker attachment path")
	}
	if _, err := os.Stat(attachment); err != nil {
		t.Fatalf("attachment missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.FailedDir(3), "output", "Report_3.xlsx")); err != nil {
		t.Fatalf("run output not moved: %v", err)
	}
}

func TestCountCustomerFiles(t *testing.T) {
	stager, cfg := newStager(t)
	if count, err := stager.CountCustomerFiles(); err != nil || count != 0 {
		t.Fatalf("count = %d err = %v", count, err)
	}
	writeFile(t, filepath.Join(cfg.CustomerIntakeDir("Caplin"), "a.xlsx"))
	writeFile(t, filepath.Join(cfg.CustomerIntakeDir("Bells"), "b.xls"))
	writeFile(t, filepath.Join(cfg.CustomerIntakeDir("Bells"), "skip.txt"))
	count, err := stager.CountCustomerFiles()
	if err != nil {
		t.Fatalf("CountCustomerFiles: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}
