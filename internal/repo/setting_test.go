package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSettingRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
		WithArgs(SettingKeyAuditRetention).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("30"))

	repo := NewSettingRepo(db)
	value, err := repo.Get(context.Background(), SettingKeyAuditRetention)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "30" {
		t.Errorf("value: got %q, want %q", value, "30")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSettingRepo_Get_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
		WithArgs("no_such_key").
		WillReturnError(sql.ErrNoRows)

	repo := NewSettingRepo(db)
	_, err = repo.Get(context.Background(), "no_such_key")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error: got %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSettingRepo_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO settings \(key, value\) VALUES \(\$1, \$2\) ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED.value`).
		WithArgs(SettingKeyAuditRetention, "45").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSettingRepo(db)
	if err := repo.Set(context.Background(), SettingKeyAuditRetention, "45"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
