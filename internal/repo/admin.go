package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

// AdminRepo manages dashboard admin accounts.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns a new AdminRepo.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

const adminColumns = `id, name, email, password_hash, role, created_at`

// Create inserts a new admin. passwordHash must already be a bcrypt hash.
func (r *AdminRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO admins (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+adminColumns,
		name, email, passwordHash, role,
	).Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByID returns the admin with the given id, or sql.ErrNoRows.
func (r *AdminRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id,
	).Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByEmail returns the admin with the given email, or sql.ErrNoRows.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = $1`, email,
	).Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// List returns all admins ordered by creation time.
func (r *AdminRepo) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}
