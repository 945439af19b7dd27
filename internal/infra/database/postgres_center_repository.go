package database

import (
	"context"
	"database/sql"
	"fmt"

	"renewal_reminder_bot/internal/domain/center"
)

var ErrCenterNotFound = fmt.Errorf("inspection center not found")

type PostgresCenterRepository struct {
	db *sql.DB
}

func NewPostgresCenterRepository(db *sql.DB) *PostgresCenterRepository {
	return &PostgresCenterRepository{db: db}
}

func (r *PostgresCenterRepository) GetByID(ctx context.Context, id int64) (*center.Center, error) {
	query := `SELECT id, name, template_namespace, phone, created_at
               FROM inspection_centers WHERE id = $1`
	c := &center.Center{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.TemplateNamespace, &c.Phone, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("error getting inspection center by ID: %w", err)
	}
	return c, nil
}
