package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
)

// EventRepo manages event content rows.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

const eventColumns = `id, title, description, location, starts_at, published, created_at, updated_at`

func scanEvent(row *sql.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.Published, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts an event and returns the stored row.
func (r *EventRepo) Create(ctx context.Context, e models.Event) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO events (title, description, location, starts_at, published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+eventColumns,
		e.Title, e.Description, e.Location, e.StartsAt, e.Published,
	)
	return scanEvent(row)
}

// GetByID returns one event, or sql.ErrNoRows.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// Update overwrites the mutable fields of an event and returns the stored row.
func (r *EventRepo) Update(ctx context.Context, id uuid.UUID, e models.Event) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE events
		 SET title = $1, description = $2, location = $3, starts_at = $4, published = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING `+eventColumns,
		e.Title, e.Description, e.Location, e.StartsAt, e.Published, id,
	)
	return scanEvent(row)
}

// Delete removes an event. Returns sql.ErrNoRows when the id does not exist.
func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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

// List returns events soonest first with limit/offset paging.
func (r *EventRepo) List(ctx context.Context, limit, offset int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY starts_at LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.Published, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
