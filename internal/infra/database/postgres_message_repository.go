// internal/infra/database/postgres_message_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/messaging"
)

var ErrMessageNotFound = fmt.Errorf("message not found")

type PostgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) RecordOutbound(ctx context.Context, m *messaging.Message) error {
	query := `INSERT INTO messages (ref, chat_id, direction, template_id, body, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, m.Ref, m.ChatID, messaging.DirectionOutbound, m.TemplateID, m.Body, m.SentAt)
	if err != nil {
		return fmt.Errorf("error recording outbound message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) RecordInbound(ctx context.Context, m *messaging.Message) error {
	query := `INSERT INTO messages (ref, chat_id, direction, body, sent_at)
               VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, m.Ref, m.ChatID, messaging.DirectionInbound, m.Body, m.SentAt)
	if err != nil {
		return fmt.Errorf("error recording inbound message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, ref string, readAt time.Time) error {
	query := `UPDATE messages SET read_at = $1 WHERE ref = $2 AND read_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, readAt, ref)
	if err != nil {
		return fmt.Errorf("error marking message read: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByRef(ctx context.Context, ref string) (*messaging.Message, error) {
	query := `SELECT ref, chat_id, direction, template_id, body, sent_at, read_at
               FROM messages WHERE ref = $1`
	m := &messaging.Message{}
	err := r.db.QueryRowContext(ctx, query, ref).Scan(&m.Ref, &m.ChatID, &m.Direction, &m.TemplateID, &m.Body, &m.SentAt, &m.ReadAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("error getting message by ref: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) LastOutbound(ctx context.Context, chatID int64) (*messaging.Message, error) {
	query := `SELECT ref, chat_id, direction, template_id, body, sent_at, read_at
               FROM messages
               WHERE chat_id = $1 AND direction = $2 AND template_id IS NOT NULL
               ORDER BY sent_at DESC LIMIT 1`
	m := &messaging.Message{}
	err := r.db.QueryRowContext(ctx, query, chatID, messaging.DirectionOutbound).Scan(
		&m.Ref, &m.ChatID, &m.Direction, &m.TemplateID, &m.Body, &m.SentAt, &m.ReadAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("error getting last outbound message: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) HasInboundSince(ctx context.Context, chatID int64, since time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM messages WHERE chat_id = $1 AND direction = $2 AND sent_at > $3`
	var count int
	err := r.db.QueryRowContext(ctx, query, chatID, messaging.DirectionInbound, since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error counting inbound messages: %w", err)
	}
	return count > 0, nil
}
