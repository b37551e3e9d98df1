package store

import (
	"context"
	"fmt"
	"time"
)

// ReportTable is a handle to one of the fixed per-customer report tables.
// SQLite cannot parameterize identifiers, so table names come only from
// this closed set, resolved once per customer.
type ReportTable struct {
	name string
}

var reportTables = map[string]ReportTable{
	"caplin":         {name: "caplin_report"},
	"bells":          {name: "bells_report"},
	"relonchem":      {name: "relonchem_report"},
	"marksans_usa":   {name: "marksans_usa_report"},
	"padagis_usa":    {name: "padagis_usa_report"},
	"padagis_israel": {name: "padagis_israel_report"},
}

// ReportTableFor resolves the report table for an extractor tag. Unknown
// tags are an error, never a silently interpolated table name.
func ReportTableFor(extractor string) (ReportTable, error) {
	table, ok := reportTables[extractor]
	if !ok {
		return ReportTable{}, fmt.Errorf("no report table for extractor %q", extractor)
	}
	return table, nil
}

// Name returns the underlying table name.
func (t ReportTable) Name() string { return t.name }

// ReportRecord is one classified row destined for a customer report table.
// The six tables share a column superset; fields a customer's layout does
// not populate stay empty.
type ReportRecord struct {
	RowNo             int
	SheetName         string
	ProductName       string
	Strength          string
	Unit              string
	ActiveIngredients string
	FilteredName      string
	ApprovalStatus    string
	WithdrawnDate     string
	NDC               string
	Comment           string
	ColorStatus       string
	IncludeExclude    string
	Remark            string
}

// ReplaceReportRecords removes a run's prior rows from the table and inserts
// the new set in one transaction, so a retried customer never double-counts.
func (s *Store) ReplaceReportRecords(ctx context.Context, table ReportTable, runID int64, records []ReportRecord) error {
	if table.name == "" {
		return fmt.Errorf("report table is unset")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table.name+` WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear report rows: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table.name+` (
        run_id, rowno, sheet_name, product_name, strength, unit,
        active_ingredients, filtered_name, approval_status, withdrawn_date,
        ndc, comment, color_status, include_exclude_status, remark, added_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare report insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			record.RowNo,
			nullableString(record.SheetName),
			nullableString(record.ProductName),
			nullableString(record.Strength),
			nullableString(record.Unit),
			nullableString(record.ActiveIngredients),
			nullableString(record.FilteredName),
			nullableString(record.ApprovalStatus),
			nullableString(record.WithdrawnDate),
			nullableString(record.NDC),
			nullableString(record.Comment),
			nullableString(record.ColorStatus),
			record.IncludeExclude,
			nullableString(record.Remark),
			now,
		); err != nil {
			return fmt.Errorf("insert report row %d: %w", record.RowNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report rows: %w", err)
	}
	return nil
}

// ReportCounts holds the include/exclude tallies for one customer's table.
type ReportCounts struct {
	Include int
	Exclude int
	Total   int
}

// CountReportRecords tallies include and exclude rows for a run in the
// given table.
func (s *Store) CountReportRecords(ctx context.Context, table ReportTable, runID int64) (ReportCounts, error) {
	if table.name == "" {
		return ReportCounts{}, fmt.Errorf("report table is unset")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT include_exclude_status, COUNT(1) FROM `+table.name+` WHERE run_id = ? GROUP BY include_exclude_status`,
		runID,
	)
	if err != nil {
		return ReportCounts{}, fmt.Errorf("count report rows: %w", err)
	}
	defer rows.Close()

	var counts ReportCounts
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return ReportCounts{}, err
		}
		counts.Total += count
		switch status {
		case "include":
			counts.Include = count
		case "exclude":
			counts.Exclude = count
		}
	}
	return counts, rows.Err()
}
