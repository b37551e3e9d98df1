package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status captures the lifecycle of a processing run.
type Status string

const (
	StatusInitiated           Status = "Initiated"
	StatusFileMoved           Status = "FileMovedToInProgress"
	StatusValidationInitiated Status = "ValidationInitiated"
	StatusValidationCompleted Status = "ValidationCompleted"
	StatusCompleted           Status = "Completed"
	StatusFailed              Status = "Failed"
)

// statusRank orders the non-failure statuses. A run only ever advances one
// step at a time; Failed is reachable from any non-terminal state.
var statusRank = map[Status]int{
	StatusInitiated:           0,
	StatusFileMoved:           1,
	StatusValidationInitiated: 2,
	StatusValidationCompleted: 3,
	StatusCompleted:           4,
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrInvalidTransition indicates a run status change that violates the
// lifecycle ordering.
var ErrInvalidTransition = errors.New("invalid run transition")

// Run is one execution of the tracker update workflow.
type Run struct {
	ID           int64
	Status       Status
	TrackerFile  string
	ErrorMessage string
	StartTime    time.Time
	EndTime      *time.Time
}

// StartRun inserts a new run in the Initiated state and returns it. The run
// identifier comes from the database, never from a separate lookup.
func (s *Store) StartRun(ctx context.Context) (*Run, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (status, start_time) VALUES (?, ?)`,
		StatusInitiated,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRun(ctx, id)
}

// GetRun fetches a run by identifier. Returns nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// SetTrackerFile records the tracker workbook name on a run.
func (s *Store) SetTrackerFile(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET tracker_file = ? WHERE id = ?`, nullableString(name), id)
	if err != nil {
		return fmt.Errorf("set tracker file: %w", err)
	}
	return nil
}

// Transition advances a run to the next status. Non-failure statuses must
// advance exactly one step; Failed is allowed from any non-terminal state
// and records the provided message. Terminal runs reject every transition.
// Reaching a terminal status stamps end_time.
func (s *Store) Transition(ctx context.Context, id int64, next Status, message string) (*Run, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if run.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: run %d is already %s", ErrInvalidTransition, id, run.Status)
	}

	if next == StatusFailed {
		return s.finishRun(ctx, run, StatusFailed, message)
	}

	currentRank, ok := statusRank[run.Status]
	if !ok {
		return nil, fmt.Errorf("%w: run %d has unknown status %q", ErrInvalidTransition, id, run.Status)
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return nil, fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, next)
	}
	if nextRank != currentRank+1 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, run.Status, next)
	}

	if next.IsTerminal() {
		return s.finishRun(ctx, run, next, message)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, next, run.ID)
	if err != nil {
		return nil, fmt.Errorf("update run status: %w", err)
	}
	return s.GetRun(ctx, run.ID)
}

func (s *Store) finishRun(ctx context.Context, run *Run, status Status, message string) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, end_time = ? WHERE id = ?`,
		status,
		nullableString(message),
		now.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	return s.GetRun(ctx, run.ID)
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runColumns = "id, status, tracker_file, error_message, start_time, end_time"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           int64
		statusStr    string
		trackerFile  sql.NullString
		errorMessage sql.NullString
		startRaw     sql.NullString
		endRaw       sql.NullString
	)
	if err := scanner.Scan(&id, &statusStr, &trackerFile, &errorMessage, &startRaw, &endRaw); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		Status:       Status(statusStr),
		TrackerFile:  trackerFile.String,
		ErrorMessage: errorMessage.String,
	}
	if start, err := parseTimeString(startRaw.String); err == nil {
		run.StartTime = start
	}
	if endRaw.Valid {
		if end, err := parseTimeString(endRaw.String); err == nil {
			run.EndTime = &end
		}
	}
	return run, nil
}
