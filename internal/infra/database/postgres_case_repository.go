// internal/infra/database/postgres_case_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to the case repository
var ErrCaseNotFound = fmt.Errorf("renewal case not found")

type PostgresCaseRepository struct {
	db *sql.DB
}

func NewPostgresCaseRepository(db *sql.DB) *PostgresCaseRepository {
	return &PostgresCaseRepository{db: db}
}

const caseColumns = `id, customer_id, due_date, status, last_action_kind, last_action_at,
               follow_up_sent, follow_up_sent_at, response_received_at, created_at, updated_at`

func scanCase(row interface{ Scan(...any) error }) (*renewal.Case, error) {
	c := &renewal.Case{}
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.DueDate, &c.Status, &c.LastActionKind, &c.LastActionAt,
		&c.FollowUpSent, &c.FollowUpSentAt, &c.ResponseReceivedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresCaseRepository) GetByID(ctx context.Context, id int64) (*renewal.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM renewal_cases WHERE id = $1`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("error getting renewal case by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCaseRepository) ListByStatusAndDue(ctx context.Context, statuses []renewal.Status, dueBefore, createdBefore time.Time) ([]*renewal.Case, error) {
	query := `SELECT ` + caseColumns + `
               FROM renewal_cases
               WHERE status = ANY($1::varchar[]) AND due_date <= $2 AND created_at < $3
               ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statusStrings(statuses)), dueBefore, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("error querying cases by status and due date: %w", err)
	}
	defer rows.Close()
	return collectCases(rows)
}

func (r *PostgresCaseRepository) ListByStatuses(ctx context.Context, statuses []renewal.Status) ([]*renewal.Case, error) {
	query := `SELECT ` + caseColumns + `
               FROM renewal_cases
               WHERE status = ANY($1::varchar[])
               ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("error querying cases by statuses: %w", err)
	}
	defer rows.Close()
	return collectCases(rows)
}

func (r *PostgresCaseRepository) GetOpenByCustomerID(ctx context.Context, customerID int64) (*renewal.Case, error) {
	reminderStatuses := []renewal.Status{renewal.StatusReminder1Sent, renewal.StatusReminder2Sent, renewal.StatusReminder3Sent}
	query := `SELECT ` + caseColumns + `
               FROM renewal_cases
               WHERE customer_id = $1 AND status = ANY($2::varchar[])
               ORDER BY due_date ASC LIMIT 1`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, customerID, pq.Array(statusStrings(reminderStatuses))))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("error getting open case by customer ID: %w", err)
	}
	return c, nil
}

// CompareAndSwapStatus advances the case only if the stored status still
// matches the one observed at read time. A zero row count is the rejection
// signal, never an error.
func (r *PostgresCaseRepository) CompareAndSwapStatus(ctx context.Context, id int64, expected, next renewal.Status, meta renewal.ActionMeta) (bool, error) {
	query := `UPDATE renewal_cases
               SET status = $1, last_action_kind = $2, last_action_at = $3, updated_at = NOW()
               WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, next, string(meta.Kind), meta.At, id, expected)
	if err != nil {
		return false, fmt.Errorf("error swapping case status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for status swap: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresCaseRepository) SetFollowUpSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	query := `UPDATE renewal_cases
               SET follow_up_sent = TRUE, follow_up_sent_at = $1, updated_at = NOW()
               WHERE id = $2 AND follow_up_sent = FALSE`
	res, err := r.db.ExecContext(ctx, query, sentAt, id)
	if err != nil {
		return false, fmt.Errorf("error setting follow-up flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for follow-up flag: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresCaseRepository) MarkResponded(ctx context.Context, id int64, expected renewal.Status, receivedAt time.Time) (bool, error) {
	query := `UPDATE renewal_cases
               SET status = $1, response_received_at = $2, last_action_kind = $3, last_action_at = $2, updated_at = NOW()
               WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, renewal.StatusOnhold, receivedAt, string(renewal.ActionKindInboundOnhold), id, expected)
	if err != nil {
		return false, fmt.Errorf("error marking case responded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for responded mark: %w", err)
	}
	return affected == 1, nil
}

func collectCases(rows *sql.Rows) ([]*renewal.Case, error) {
	cases := make([]*renewal.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning renewal case row: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating renewal case rows: %w", err)
	}
	return cases, nil
}

func statusStrings(statuses []renewal.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
