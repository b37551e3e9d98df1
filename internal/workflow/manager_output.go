package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pharmatrack/internal/logging"
	"pharmatrack/internal/notify"
	"pharmatrack/internal/store"
)

// routeOutput decides the run's terminal disposition from the aggregate of
// customer outcomes: all-failed runs go to the failed area with a failure
// email, everything else publishes the tracker and sends the success email.
func (m *Manager) routeOutput(ctx context.Context, rc *runContext) (*store.Run, error) {
	completed, err := m.store.CustomerFilesForRun(ctx, rc.run.ID, store.FileCompleted)
	if err != nil {
		return m.failRun(ctx, rc, err.Error())
	}
	failed, err := m.store.CustomerFilesForRun(ctx, rc.run.ID, store.FileFailed)
	if err != nil {
		return m.failRun(ctx, rc, err.Error())
	}

	if len(completed) == 0 && len(failed) > 0 {
		return m.failRun(ctx, rc, allFailedMessage(failed))
	}

	published, err := m.stager.MoveTrackerToOutput(rc.run.ID, rc.trackerPath)
	if err != nil {
		return m.failRun(ctx, rc, fmt.Sprintf("publish tracker: %v", err))
	}
	rc.trackerPath = published

	attachments, err := m.collectAttachments(rc.run.ID)
	if err != nil {
		rc.logger.Warn("could not collect attachments", logging.Error(err))
	}

	if err := m.notifier.NotifySuccess(ctx, rc.run.ID, rc.trackerName,
		fileResults(completed), fileResults(failed), attachments); err != nil {
		rc.logger.Error("success notification not sent",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run completes without email"),
		)
	}

	m.stager.CleanupInProgress()

	run, err := m.store.Transition(ctx, rc.run.ID, store.StatusCompleted, "")
	if err != nil {
		return rc.run, err
	}
	rc.logger.Info("run completed",
		logging.Int("completed_files", len(completed)),
		logging.Int("failed_files", len(failed)),
		logging.String(logging.FieldEventType, "run_completed"),
	)
	return run, nil
}

// collectAttachments returns the run's output workbooks, excluding any
// conflict copies a reviewer left behind.
func (m *Manager) collectAttachments(runID int64) ([]string, error) {
	outputDir := m.cfg.OutputDir(runID)
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var attachments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") || strings.Contains(name, "Conflict") {
			continue
		}
		attachments = append(attachments, filepath.Join(outputDir, name))
	}
	return attachments, nil
}

func allFailedMessage(failed []*store.CustomerLog) string {
	var b strings.Builder
	b.WriteString("Below files failed during processing:\n\n")
	for i, entry := range failed {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d) %s - %s", i+1, entry.CustomerName, entry.FileName)
	}
	return b.String()
}

func fileResults(entries []*store.CustomerLog) []notify.FileResult {
	results := make([]notify.FileResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, notify.FileResult{
			Customer: entry.CustomerName,
			FileName: entry.FileName,
			Message:  entry.Message,
		})
	}
	return results
}
