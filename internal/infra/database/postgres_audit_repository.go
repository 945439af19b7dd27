// internal/infra/database/postgres_audit_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/google/uuid"
)

// PostgresAuditRepository is the append-only action log. Entries are never
// updated or deleted.
type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) Append(ctx context.Context, caseID int64, kind renewal.ActionKind, outcome audit.Outcome, detail string, at time.Time) error {
	query := `INSERT INTO case_audit_log (id, case_id, action_kind, outcome, detail, occurred_at)
               VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), caseID, string(kind), string(outcome), detail, at)
	if err != nil {
		return fmt.Errorf("error appending audit record: %w", err)
	}
	return nil
}

// ListByCase returns the audit trail of one case, oldest first. Used by
// operators investigating a run.
func (r *PostgresAuditRepository) ListByCase(ctx context.Context, caseID int64) ([]*audit.Record, error) {
	query := `SELECT id, case_id, action_kind, outcome, detail, occurred_at
               FROM case_audit_log WHERE case_id = $1 ORDER BY occurred_at ASC`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("error querying audit records: %w", err)
	}
	defer rows.Close()

	records := make([]*audit.Record, 0)
	for rows.Next() {
		rec := &audit.Record{}
		if err := rows.Scan(&rec.ID, &rec.CaseID, &rec.ActionKind, &rec.Outcome, &rec.Detail, &rec.At); err != nil {
			return nil, fmt.Errorf("error scanning audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}
	return records, nil
}
