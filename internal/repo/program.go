package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

// ProgramRepo manages program content rows.
type ProgramRepo struct {
	db *sql.DB
}

// NewProgramRepo returns a new ProgramRepo.
func NewProgramRepo(db *sql.DB) *ProgramRepo {
	return &ProgramRepo{db: db}
}

const programColumns = `id, title, description, category, image_url, published, created_at, updated_at`

func scanProgram(row *sql.Row) (*models.Program, error) {
	p := &models.Program{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.ImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a program and returns the stored row.
func (r *ProgramRepo) Create(ctx context.Context, p models.Program) (*models.Program, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO programs (title, description, category, image_url, published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+programColumns,
		p.Title, p.Description, p.Category, p.ImageURL, p.Published,
	)
	return scanProgram(row)
}

// GetByID returns one program, or sql.ErrNoRows.
func (r *ProgramRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, id)
	return scanProgram(row)
}

// Update overwrites the mutable fields of a program and returns the stored row.
func (r *ProgramRepo) Update(ctx context.Context, id uuid.UUID, p models.Program) (*models.Program, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE programs
		 SET title = $1, description = $2, category = $3, image_url = $4, published = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING `+programColumns,
		p.Title, p.Description, p.Category, p.ImageURL, p.Published, id,
	)
	return scanProgram(row)
}

// Delete removes a program. Returns sql.ErrNoRows when the id does not exist.
func (r *ProgramRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
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

// List returns programs newest first with limit/offset paging.
func (r *ProgramRepo) List(ctx context.Context, limit, offset int) ([]models.Program, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM programs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.ImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}
