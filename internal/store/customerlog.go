package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FileStatus tracks the outcome of one customer file within a run.
type FileStatus string

const (
	FileInitiated FileStatus = "Initiated"
	FileCompleted FileStatus = "Completed"
	FileFailed    FileStatus = "Failed"
)

// CustomerLog records the processing of one customer workbook.
type CustomerLog struct {
	ID           int64
	RunID        int64
	CustomerID   int64
	CustomerName string
	FileName     string
	Status       FileStatus
	Message      string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// BeginCustomerFile inserts a log entry in the Initiated state before any
// staging or extraction happens, so a crash still leaves a trace.
func (s *Store) BeginCustomerFile(ctx context.Context, runID, customerID int64, customerName, fileName string) (*CustomerLog, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO customer_log (run_id, customer_id, customer_name, file_name, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		customerID,
		customerName,
		fileName,
		FileInitiated,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getCustomerLog(ctx, id)
}

// CompleteCustomerFile marks a log entry as successfully processed.
func (s *Store) CompleteCustomerFile(ctx context.Context, id int64) error {
	return s.finishCustomerFile(ctx, id, FileCompleted, "")
}

// FailCustomerFile marks a log entry as failed with a message.
func (s *Store) FailCustomerFile(ctx context.Context, id int64, message string) error {
	return s.finishCustomerFile(ctx, id, FileFailed, message)
}

func (s *Store) finishCustomerFile(ctx context.Context, id int64, status FileStatus, message string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE customer_log SET status = ?, message = ?, finished_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		now.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish customer log: %w", err)
	}
	return nil
}

// CustomerFilesForRun returns all log entries for a run with the given
// status, ordered by customer id.
func (s *Store) CustomerFilesForRun(ctx context.Context, runID int64, status FileStatus) ([]*CustomerLog, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+customerLogColumns+` FROM customer_log WHERE run_id = ? AND status = ? ORDER BY customer_id`,
		runID,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("query customer log: %w", err)
	}
	defer rows.Close()

	var entries []*CustomerLog
	for rows.Next() {
		entry, err := scanCustomerLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CustomerLogForRun returns every log entry for a run, ordered by
// customer id.
func (s *Store) CustomerLogForRun(ctx context.Context, runID int64) ([]*CustomerLog, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+customerLogColumns+` FROM customer_log WHERE run_id = ? ORDER BY customer_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query customer log: %w", err)
	}
	defer rows.Close()

	var entries []*CustomerLog
	for rows.Next() {
		entry, err := scanCustomerLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) getCustomerLog(ctx context.Context, id int64) (*CustomerLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerLogColumns+` FROM customer_log WHERE id = ?`, id)
	entry, err := scanCustomerLog(row)
	if err != nil {
		return nil, fmt.Errorf("get customer log: %w", err)
	}
	return entry, nil
}

const customerLogColumns = "id, run_id, customer_id, customer_name, file_name, status, message, started_at, finished_at"

func scanCustomerLog(scanner interface{ Scan(dest ...any) error }) (*CustomerLog, error) {
	var (
		id           int64
		runID        int64
		customerID   int64
		customerName string
		fileName     string
		statusStr    string
		message      sql.NullString
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(&id, &runID, &customerID, &customerName, &fileName, &statusStr, &message, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}

	entry := &CustomerLog{
		ID:           id,
		RunID:        runID,
		CustomerID:   customerID,
		CustomerName: customerName,
		FileName:     fileName,
		Status:       FileStatus(statusStr),
		Message:      message.String,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		entry.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			entry.FinishedAt = &finished
		}
	}
	return entry, nil
}
