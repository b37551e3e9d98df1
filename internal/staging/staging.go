// Package staging moves workbooks between the intake, in-progress,
// processed and failed areas. Staging moves are fatal when they fail;
// post-run cleanup is logged and swallowed.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pharmatrack/internal/config"
	"pharmatrack/internal/fileutil"
	"pharmatrack/internal/logging"
)

// Stager owns all file movement for a run.
type Stager struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a Stager. A nil logger is replaced with a no-op logger.
func New(cfg *config.Config, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stager{cfg: cfg, logger: logging.WithComponent(logger, "staging")}
}

// FindTracker returns the first tracker workbook in the intake directory,
// sorted by name. ok is false when the directory holds no workbook.
func (s *Stager) FindTracker() (string, bool, error) {
	return firstWorkbook(s.cfg.IntakeTrackerDir())
}

// FindCustomerFile returns the first workbook in a customer's intake
// directory.
func (s *Stager) FindCustomerFile(customerName string) (string, bool, error) {
	return firstWorkbook(s.cfg.CustomerIntakeDir(customerName))
}

// CountCustomerFiles counts workbooks across every customer intake
// directory. The run is a no-op when either the tracker or all customer
// drops are missing.
func (s *Stager) CountCustomerFiles() (int, error) {
	root := s.cfg.CustomerIntakeRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read customer intake: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return 0, fmt.Errorf("read customer intake %q: %w", entry.Name(), err)
		}
		for _, file := range files {
			if !file.IsDir() && isWorkbook(file.Name()) {
				count++
			}
		}
	}
	return count, nil
}

// StageTracker clears the whole in-progress area and moves the tracker into
// it. Clearing everything first guarantees no leftovers from an aborted run
// leak into this one.
func (s *Stager) StageTracker(trackerPath string) (string, error) {
	if err := s.ClearInProgress(); err != nil {
		return "", err
	}
	dest := filepath.Join(s.cfg.InProgressDir(), filepath.Base(trackerPath))
	if err := fileutil.MoveFile(trackerPath, dest); err != nil {
		return "", fmt.Errorf("stage tracker: %w", err)
	}
	return dest, nil
}

// StageCustomerFile empties the customer's in-progress subdirectory and
// moves the workbook into it.
func (s *Stager) StageCustomerFile(customerName, path string) (string, error) {
	dir := filepath.Join(s.cfg.InProgressDir(), customerName)
	if err := emptyDir(dir); err != nil {
		return "", fmt.Errorf("clear in-progress for %q: %w", customerName, err)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := fileutil.MoveFile(path, dest); err != nil {
		return "", fmt.Errorf("stage customer file: %w", err)
	}
	return dest, nil
}

// FinalizeProcessed moves a successfully processed customer file into the
// run's processed area.
func (s *Stager) FinalizeProcessed(runID int64, customerName, stagedPath string) (string, error) {
	return moveInto(filepath.Join(s.cfg.ProcessedDir(runID), customerName), stagedPath)
}

// FinalizeFailed moves a failed customer file into the run's failed area.
func (s *Stager) FinalizeFailed(runID int64, customerName, stagedPath string) (string, error) {
	return moveInto(filepath.Join(s.cfg.FailedDir(runID), customerName), stagedPath)
}

// MoveTrackerToOutput moves the staged tracker into the run's output
// directory alongside the generated report.
func (s *Stager) MoveTrackerToOutput(runID int64, stagedTrackerPath string) (string, error) {
	return moveInto(s.cfg.OutputDir(runID), stagedTrackerPath)
}

// RouteRunToFailed moves the staged tracker and any run output into the
// failed area when the whole run is abandoned. It returns the tracker's new
// location for use as an email attachment; the empty string means the
// tracker was already gone.
func (s *Stager) RouteRunToFailed(runID int64, stagedTrackerPath string) (string, error) {
	attachment := ""
	if stagedTrackerPath != "" {
		if _, err := os.Stat(stagedTrackerPath); err == nil {
			moved, err := moveInto(s.cfg.FailedDir(runID), stagedTrackerPath)
			if err != nil {
				return "", err
			}
			attachment = moved
		}
	}

	outputDir := s.cfg.OutputDir(runID)
	if _, err := os.Stat(outputDir); err == nil {
		dest := filepath.Join(s.cfg.FailedDir(runID), "output")
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return attachment, fmt.Errorf("ensure failed dir: %w", err)
		}
		if err := os.Rename(outputDir, dest); err != nil {
			return attachment, fmt.Errorf("move run output to failed: %w", err)
		}
	}
	return attachment, nil
}

// ClearInProgress empties the in-progress area. Used before staging; a
// failure here aborts the run.
func (s *Stager) ClearInProgress() error {
	if err := emptyDir(s.cfg.InProgressDir()); err != nil {
		return fmt.Errorf("clear in-progress: %w", err)
	}
	return nil
}

// CleanupInProgress empties the in-progress area after a completed run.
// Failures are logged and swallowed: the run already succeeded and the next
// run clears the area again before staging.
func (s *Stager) CleanupInProgress() {
	if err := emptyDir(s.cfg.InProgressDir()); err != nil {
		s.logger.Warn("failed to clean in-progress area",
			logging.String("path", s.cfg.InProgressDir()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "staging_cleanup_failed"),
			logging.String(logging.FieldImpact, "leftovers removed at next run start"),
		)
	}
}

func firstWorkbook(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isWorkbook(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false, nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true, nil
}

// isWorkbook accepts xls and xlsx files and skips editor lock files.
func isWorkbook(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xls"
}

func emptyDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func moveInto(dir, src string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure %s: %w", dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(src))
	if err := fileutil.MoveFile(src, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	return dest, nil
}
