package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

// AuditRepo persists audit records in the live table and relocates them to the
// archive table. Live records are insert-only; nothing here updates or deletes
// a record except ArchiveBefore.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert appends one audit record. id and created_at are assigned by the
// database and written back into rec.
func (r *AuditRepo) Insert(ctx context.Context, rec *models.AuditRecord) error {
	var adminID interface{}
	if rec.AdminID != nil {
		adminID = *rec.AdminID
	}
	var resourceID interface{}
	if rec.ResourceID != "" {
		resourceID = rec.ResourceID
	}
	var prev, next interface{}
	if len(rec.PreviousData) > 0 {
		prev = []byte(rec.PreviousData)
	}
	if len(rec.NewData) > 0 {
		next = []byte(rec.NewData)
	}

	return r.db.QueryRowContext(ctx,
		`INSERT INTO audit_logs (admin_id, action, resource_type, resource_id, previous_data, new_data, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		adminID, string(rec.Action), string(rec.ResourceType), resourceID, prev, next, rec.IPAddress, rec.UserAgent,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// AuditFilter is the set of optional filters shared by Search, Count and SearchAll.
// Date bounds are inclusive instants (the handler expands whole days into
// 00:00:00..23:59:59 UTC). Search is a case-insensitive substring matched
// against resource_id and the serialized previous/new payloads.
type AuditFilter struct {
	AdminID      string
	ResourceType string
	Action       string
	From         *time.Time
	To           *time.Time
	Search       string
}

// where builds the WHERE clause and arguments for f. Returned clause is empty
// or starts with "WHERE". Placeholders start at $1.
func (f AuditFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AdminID != "" {
		add("l.admin_id = $%d", f.AdminID)
	}
	if f.ResourceType != "" {
		add("l.resource_type = $%d", f.ResourceType)
	}
	if f.Action != "" {
		add("l.action = $%d", f.Action)
	}
	if f.From != nil {
		add("l.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("l.created_at <= $%d", *f.To)
	}
	if f.Search != "" {
		// Substring match over the raw serialized payloads, OR-combined.
		// Matching against jsonb text is sensitive to formatting; accepted limitation.
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(l.resource_id ILIKE $%d OR l.previous_data::text ILIKE $%d OR l.new_data::text ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

const auditSelect = `SELECT l.id, l.admin_id, l.action, l.resource_type, l.resource_id,
       l.previous_data, l.new_data, l.ip_address, l.user_agent, l.created_at,
       COALESCE(a.name, ''), COALESCE(a.email, '')
FROM audit_logs l
LEFT JOIN admins a ON a.id = l.admin_id`

// Search returns one page of matching records, newest first.
// Pagination stability across Search and Count is not guaranteed under
// concurrent writes; callers accept the race.
func (r *AuditRepo) Search(ctx context.Context, f AuditFilter, limit, offset int) ([]models.AuditRecord, error) {
	where, args := f.where()
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s\n%s\nORDER BY l.created_at DESC LIMIT $%d OFFSET $%d",
		auditSelect, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// SearchAll returns the entire matching set, newest first. Used by CSV export.
func (r *AuditRepo) SearchAll(ctx context.Context, f AuditFilter) ([]models.AuditRecord, error) {
	where, args := f.where()
	query := fmt.Sprintf("%s\n%s\nORDER BY l.created_at DESC", auditSelect, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// Count returns the total number of records matching f, independent of paging.
func (r *AuditRepo) Count(ctx context.Context, f AuditFilter) (int, error) {
	where, args := f.where()
	query := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs l %s", where)

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanAuditRows(rows *sql.Rows) ([]models.AuditRecord, error) {
	var out []models.AuditRecord
	for rows.Next() {
		var rec models.AuditRecord
		var adminID uuid.NullUUID
		var resourceID sql.NullString
		var prev, next []byte
		if err := rows.Scan(
			&rec.ID, &adminID, &rec.Action, &rec.ResourceType, &resourceID,
			&prev, &next, &rec.IPAddress, &rec.UserAgent, &rec.CreatedAt,
			&rec.AdminName, &rec.AdminEmail,
		); err != nil {
			return nil, err
		}
		if adminID.Valid {
			id := adminID.UUID
			rec.AdminID = &id
		}
		if resourceID.Valid {
			rec.ResourceID = resourceID.String
		}
		if len(prev) > 0 {
			rec.PreviousData = append([]byte(nil), prev...)
		}
		if len(next) > 0 {
			rec.NewData = append([]byte(nil), next...)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// EnsureArchiveTable creates the archive table when missing. Idempotent.
// LIKE copies columns, defaults and indexes but not the admins FK, which the
// archive does not want anyway.
func (r *AuditRepo) EnsureArchiveTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS audit_logs_archive (LIKE audit_logs INCLUDING ALL)`)
	return err
}

// ArchiveBefore moves every live record with created_at < cutoff into the
// archive table and returns the number moved. The move is a single statement,
// so it is atomic at the store level.
func (r *AuditRepo) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`WITH moved AS (
		    DELETE FROM audit_logs WHERE created_at < $1 RETURNING *
		 )
		 INSERT INTO audit_logs_archive SELECT * FROM moved`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
