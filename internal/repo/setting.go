package repo

import (
	"context"
	"database/sql"
)

// SettingKeyAuditRetention is the settings key holding the audit retention
// horizon in days, stored as a string-encoded integer.
const SettingKeyAuditRetention = "audit_retention_days"

// SettingRepo reads and writes the key-value settings table.
type SettingRepo struct {
	db *sql.DB
}

// NewSettingRepo returns a new SettingRepo.
func NewSettingRepo(db *sql.DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// Get returns the value for key. Missing keys return sql.ErrNoRows.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts the value for key.
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return err
}
