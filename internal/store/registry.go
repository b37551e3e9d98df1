package store

import (
	"context"
	"fmt"

	"pharmatrack/internal/config"
)

// SyncRegistry mirrors the configured customer list and excluded salts into
// the database so historical report rows remain interpretable after config
// edits.
func (s *Store) SyncRegistry(ctx context.Context, cfg *config.Config) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, customer := range cfg.Customers {
		active := 0
		if customer.Active {
			active = 1
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO customers (id, name, extractor, active) VALUES (?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET name = excluded.name, extractor = excluded.extractor, active = excluded.active`,
			customer.ID,
			customer.Name,
			customer.Extractor,
			active,
		); err != nil {
			return fmt.Errorf("sync customer %q: %w", customer.Name, err)
		}
	}

	for _, salt := range cfg.ExcludedSalts {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO excluded_salts (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
			salt,
		); err != nil {
			return fmt.Errorf("sync salt %q: %w", salt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry: %w", err)
	}
	return nil
}

// ExcludedSalts returns the stored salt list ordered by name.
func (s *Store) ExcludedSalts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM excluded_salts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query salts: %w", err)
	}
	defer rows.Close()

	var salts []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		salts = append(salts, name)
	}
	return salts, rows.Err()
}
