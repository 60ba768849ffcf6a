package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

// ContactRepo stores contact form submissions.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo returns a new ContactRepo.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// Create inserts a contact message and returns the stored row.
func (r *ContactRepo) Create(ctx context.Context, m models.ContactMessage) (*models.ContactMessage, error) {
	out := &models.ContactMessage{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contact_messages (name, email, phone, subject, message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, email, phone, subject, message, read, created_at`,
		m.Name, m.Email, m.Phone, m.Subject, m.Message,
	).Scan(&out.ID, &out.Name, &out.Email, &out.Phone, &out.Subject, &out.Message, &out.Read, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags a message as read.
func (r *ContactRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contact_messages SET read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns messages newest first with limit/offset paging.
func (r *ContactRepo) List(ctx context.Context, limit, offset int) ([]models.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, subject, message, read, created_at
		 FROM contact_messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
