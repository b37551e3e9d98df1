package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"pharmatrack/internal/logging"
	"pharmatrack/internal/store"
	"pharmatrack/internal/textutil"
	"pharmatrack/internal/tracker"
)

// Execute performs one complete run. It returns ErrNothingToDo without
// creating a run when the drop areas are empty; otherwise the returned run
// always reaches a terminal status.
func (m *Manager) Execute(ctx context.Context) (*store.Run, error) {
	trackerPath, found, err := m.stager.FindTracker()
	if err != nil {
		return nil, err
	}
	customerFiles, err := m.stager.CountCustomerFiles()
	if err != nil {
		return nil, err
	}
	if !found || customerFiles == 0 {
		m.logger.Warn("nothing to process",
			logging.Bool("tracker_present", found),
			logging.Int("customer_files", customerFiles),
			logging.String(logging.FieldEventType, "run_skipped"),
		)
		return nil, ErrNothingToDo
	}

	// Mirror the configured registry into the database first; the run reads
	// its excluded salts back from there.
	if err := m.store.SyncRegistry(ctx, m.cfg); err != nil {
		return nil, fmt.Errorf("sync registry: %w", err)
	}

	run, err := m.store.StartRun(ctx)
	if err != nil {
		return nil, err
	}

	rc := &runContext{
		run:         run,
		trackerName: filepath.Base(trackerPath),
		logger: logging.WithRunID(m.logger, run.ID).With(
			logging.String("correlation_id", uuid.NewString()),
		),
	}
	if err := m.store.SetTrackerFile(ctx, run.ID, rc.trackerName); err != nil {
		return m.failRun(ctx, rc, fmt.Sprintf("record tracker file: %v", err))
	}

	salts, err := m.store.ExcludedSalts(ctx)
	if err != nil {
		return m.failRun(ctx, rc, fmt.Sprintf("load excluded salts: %v", err))
	}
	rc.salts, err = textutil.NewSaltSet(salts)
	if err != nil {
		return m.failRun(ctx, rc, fmt.Sprintf("compile salt exclusions: %v", err))
	}

	rc.logger.Info("run started",
		logging.String("tracker", rc.trackerName),
		logging.Int("customer_files", customerFiles),
		logging.String(logging.FieldEventType, "run_started"),
	)

	// Stage the tracker into the freshly cleared in-progress area.
	staged, err := m.stager.StageTracker(trackerPath)
	if err != nil {
		return m.failRun(ctx, rc, fmt.Sprintf("stage tracker: %v", err))
	}
	rc.trackerPath = staged
	if rc.run, err = m.store.Transition(ctx, run.ID, store.StatusFileMoved, ""); err != nil {
		return m.failRun(ctx, rc, err.Error())
	}

	// Validate tracker structure before any customer work.
	if rc.run, err = m.store.Transition(ctx, run.ID, store.StatusValidationInitiated, ""); err != nil {
		return m.failRun(ctx, rc, err.Error())
	}
	if err := tracker.Validate(rc.trackerPath, m.cfg); err != nil {
		return m.failRun(ctx, rc, err.Error())
	}
	if rc.run, err = m.store.Transition(ctx, run.ID, store.StatusValidationCompleted, ""); err != nil {
		return m.failRun(ctx, rc, err.Error())
	}

	var unbound map[string]error
	rc.bindings, unbound = m.bindActiveCustomers()

	m.processCustomers(ctx, rc, unbound)

	// Report generation failures do not abort the run; the output routing
	// step still publishes the tracker and the summary email.
	if _, err := m.reports.Generate(ctx, run.ID, rc.bindings, rc.trackerPath); err != nil {
		rc.logger.Error("report generation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "report_failed"),
			logging.String(logging.FieldImpact, "success email sent without report attachment"),
		)
	}

	return m.routeOutput(ctx, rc)
}

// failRun routes the staged tracker and any output to the failed area,
// sends the failure notification and marks the run Failed.
func (m *Manager) failRun(ctx context.Context, rc *runContext, message string) (*store.Run, error) {
	rc.logger.Error("run failed",
		logging.String("reason", message),
		logging.String(logging.FieldEventType, "run_failed"),
	)

	attachment, err := m.stager.RouteRunToFailed(rc.run.ID, rc.trackerPath)
	if err != nil {
		rc.logger.Error("failed to route run to failed area", logging.Error(err))
	}

	if err := m.notifier.NotifyFailure(ctx, rc.run.ID, rc.trackerName, message, attachment); err != nil {
		rc.logger.Error("failure notification not sent", logging.Error(err))
	}

	run, err := m.store.Transition(ctx, rc.run.ID, store.StatusFailed, message)
	if err != nil {
		return rc.run, err
	}
	return run, nil
}
