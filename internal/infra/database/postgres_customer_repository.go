package database

import (
	"context"
	"database/sql"
	"fmt"

	"renewal_reminder_bot/internal/domain/customer"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrCustomerNotFound = fmt.Errorf("customer not found")

type PostgresCustomerRepository struct {
	db *sql.DB
}

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT id, first_name, last_name, phone, chat_id, center_id, created_at, updated_at
               FROM customers WHERE id = $1`
	c := &customer.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.ChatID, &c.CenterID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error getting customer by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCustomerRepository) GetByChatID(ctx context.Context, chatID int64) (*customer.Customer, error) {
	query := `SELECT id, first_name, last_name, phone, chat_id, center_id, created_at, updated_at
               FROM customers WHERE chat_id = $1`
	c := &customer.Customer{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.ChatID, &c.CenterID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error getting customer by chat ID: %w", err)
	}
	return c, nil
}
