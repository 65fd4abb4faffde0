package sqlite

import (
	"context"
	"fmt"
	"time"
)

// GetSettings returns the stored values of a settings group. A group with
// nothing stored yields an empty map.
func (s *Store) GetSettings(ctx context.Context, group string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM settings WHERE setting_group = ?`, group)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return values, nil
}

// SaveSettings upserts the given values into a group in one transaction.
// Keys not named in values are left alone.
func (s *Store) SaveSettings(ctx context.Context, group string, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	for name, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (setting_group, name, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(setting_group, name) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at`,
			group, name, value, now,
		)
		if err != nil {
			return fmt.Errorf("upsert setting %s.%s: %w", group, name, err)
		}
	}

	return tx.Commit()
}

// DeleteSettings removes every value of a group. Deleting an empty group is
// not an error.
func (s *Store) DeleteSettings(ctx context.Context, group string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE setting_group = ?`, group); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
