package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SummaryRow is one customer's tallies in the include/exclude summary.
type SummaryRow struct {
	CustomerName string
	Include      int
	Exclude      int
	Total        int
}

// OverallRow is one tracker row snapshot for the overall report. Values maps
// customer column name to the cell value so the tracker's customer set stays
// configurable without schema changes.
type OverallRow struct {
	RowNo       int
	ProductName string
	Values      map[string]string
	Comment     string
}

// ReplaceSummary truncates both summary tables and rewrites them from the
// supplied rows. Summaries are always recomputed whole, never patched.
func (s *Store) ReplaceSummary(ctx context.Context, runID int64, summary []SummaryRow, overall []OverallRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin summary tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM include_exclude_count`); err != nil {
		return fmt.Errorf("truncate include_exclude_count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM overall_report`); err != nil {
		return fmt.Errorf("truncate overall_report: %w", err)
	}

	for _, row := range summary {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO include_exclude_count (run_id, customer_name, include_count, exclude_count, total_count)
             VALUES (?, ?, ?, ?, ?)`,
			runID,
			row.CustomerName,
			row.Include,
			row.Exclude,
			row.Total,
		); err != nil {
			return fmt.Errorf("insert summary row %q: %w", row.CustomerName, err)
		}
	}

	for _, row := range overall {
		valuesJSON, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("marshal overall row %d: %w", row.RowNo, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO overall_report (run_id, rowno, product_name, customer_values, comment)
             VALUES (?, ?, ?, ?, ?)`,
			runID,
			row.RowNo,
			nullableString(row.ProductName),
			string(valuesJSON),
			nullableString(row.Comment),
		); err != nil {
			return fmt.Errorf("insert overall row %d: %w", row.RowNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit summary: %w", err)
	}
	return nil
}

// SummaryRows returns the include/exclude summary ordered by customer name.
func (s *Store) SummaryRows(ctx context.Context) ([]SummaryRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT customer_name, include_count, exclude_count, total_count
         FROM include_exclude_count ORDER BY customer_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var summary []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.CustomerName, &row.Include, &row.Exclude, &row.Total); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// OverallRows returns the overall report rows ordered by row number.
func (s *Store) OverallRows(ctx context.Context) ([]OverallRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT rowno, product_name, customer_values, comment FROM overall_report ORDER BY rowno`,
	)
	if err != nil {
		return nil, fmt.Errorf("query overall report: %w", err)
	}
	defer rows.Close()

	var overall []OverallRow
	for rows.Next() {
		var (
			row        OverallRow
			product    sql.NullString
			valuesJSON sql.NullString
			comment    sql.NullString
		)
		if err := rows.Scan(&row.RowNo, &product, &valuesJSON, &comment); err != nil {
			return nil, err
		}
		row.ProductName = product.String
		row.Comment = comment.String
		if valuesJSON.Valid && valuesJSON.String != "" {
			if err := json.Unmarshal([]byte(valuesJSON.String), &row.Values); err != nil {
				return nil, fmt.Errorf("unmarshal overall row %d: %w", row.RowNo, err)
			}
		}
		overall = append(overall, row)
	}
	return overall, rows.Err()
}
