package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

func TestAuditRepo_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	adminID := uuid.New()
	recID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO audit_logs \(admin_id, action, resource_type, resource_id, previous_data, new_data, ip_address, user_agent\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\) RETURNING id, created_at`).
		WithArgs(adminID, "update", "program", "prog-1", []byte(`{"title":"old"}`), []byte(`{"title":"new"}`), "10.0.0.1", "curl/8.0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(recID.String(), now))

	repo := NewAuditRepo(db)
	rec := models.AuditRecord{
		AdminID:      &adminID,
		Action:       models.ActionUpdate,
		ResourceType: models.ResourceProgram,
		ResourceID:   "prog-1",
		PreviousData: []byte(`{"title":"old"}`),
		NewData:      []byte(`{"title":"new"}`),
		IPAddress:    "10.0.0.1",
		UserAgent:    "curl/8.0",
	}
	if err := repo.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.ID != recID {
		t.Errorf("id not written back: got %s, want %s", rec.ID, recID)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("created_at not written back: got %v, want %v", rec.CreatedAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_Insert_SystemRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	recID := uuid.New()
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(nil, "archive", "audit_log", nil, nil, []byte(`{"archived_count":3}`), "unknown", "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(recID.String(), time.Now()))

	repo := NewAuditRepo(db)
	rec := models.AuditRecord{
		Action:       models.ActionArchive,
		ResourceType: models.ResourceAuditLog,
		NewData:      []byte(`{"archived_count":3}`),
		IPAddress:    "unknown",
		UserAgent:    "unknown",
	}
	if err := repo.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditFilter_Where(t *testing.T) {
	empty, args := AuditFilter{}.where()
	if empty != "" || args != nil {
		t.Errorf("empty filter: got %q with %d args", empty, len(args))
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	f := AuditFilter{
		AdminID:      "a1",
		ResourceType: "program",
		Action:       "update",
		From:         &from,
		To:           &to,
		Search:       "needle",
	}
	where, args := f.where()
	want := "WHERE l.admin_id = $1 AND l.resource_type = $2 AND l.action = $3 AND l.created_at >= $4 AND l.created_at <= $5 AND (l.resource_id ILIKE $6 OR l.previous_data::text ILIKE $6 OR l.new_data::text ILIKE $6)"
	if where != want {
		t.Errorf("where clause:\n got %q\nwant %q", where, want)
	}
	if len(args) != 6 {
		t.Fatalf("args: got %d, want 6", len(args))
	}
	if args[5] != "%needle%" {
		t.Errorf("search arg: got %v, want %%needle%%", args[5])
	}
}

func TestAuditRepo_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	adminID := uuid.New()
	recID := uuid.New()
	now := time.Now()
	cols := []string{"id", "admin_id", "action", "resource_type", "resource_id",
		"previous_data", "new_data", "ip_address", "user_agent", "created_at", "name", "email"}
	mock.ExpectQuery(`FROM audit_logs l LEFT JOIN admins a ON a.id = l.admin_id WHERE l.action = \$1 ORDER BY l.created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("delete", 20, 40).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(recID.String(), adminID.String(), "delete", "event", "ev-9",
				[]byte(`{"title":"gala"}`), nil, "10.0.0.2", "Mozilla/5.0", now, "Ada", "ada@example.org").
			AddRow(uuid.New().String(), nil, "archive", "audit_log", nil,
				nil, []byte(`{"archived_count":12}`), "unknown", "unknown", now, "", ""))

	repo := NewAuditRepo(db)
	logs, err := repo.Search(context.Background(), AuditFilter{Action: "delete"}, 20, 40)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d records, want 2", len(logs))
	}
	first := logs[0]
	if first.ID != recID || first.AdminID == nil || *first.AdminID != adminID {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.AdminName != "Ada" || first.AdminEmail != "ada@example.org" {
		t.Errorf("admin join not scanned: %+v", first)
	}
	if string(first.PreviousData) != `{"title":"gala"}` || first.NewData != nil {
		t.Errorf("payloads: %s / %s", first.PreviousData, first.NewData)
	}
	system := logs[1]
	if system.AdminID != nil || system.ResourceID != "" || system.AdminName != "" {
		t.Errorf("system record should have no actor: %+v", system)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs l WHERE l.resource_type = \$1`).
		WithArgs("program").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewAuditRepo(db)
	n, err := repo.Count(context.Background(), AuditFilter{ResourceType: "program"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 7 {
		t.Errorf("count: got %d, want 7", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_EnsureArchiveTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS audit_logs_archive \(LIKE audit_logs INCLUDING ALL\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAuditRepo(db)
	if err := repo.EnsureArchiveTable(context.Background()); err != nil {
		t.Fatalf("EnsureArchiveTable: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_ArchiveBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cutoff := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`WITH moved AS \( DELETE FROM audit_logs WHERE created_at < \$1 RETURNING \* \) INSERT INTO audit_logs_archive SELECT \* FROM moved`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	repo := NewAuditRepo(db)
	moved, err := repo.ArchiveBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveBefore: %v", err)
	}
	if moved != 42 {
		t.Errorf("moved: got %d, want 42", moved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
