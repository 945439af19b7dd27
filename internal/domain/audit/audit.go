// internal/domain/audit/audit.go
package audit

import (
	"context"
	"time"

	"renewal_reminder_bot/internal/domain/renewal"
)

// Outcome classifies what happened to one case during a driver run.
type Outcome string

const (
	OutcomeSent            Outcome = "sent"
	OutcomeFailed          Outcome = "failed"
	OutcomeSkipped         Outcome = "skipped"
	OutcomeSkippedConflict Outcome = "skipped-conflict"
)

// Record is one append-only action log entry.
type Record struct {
	ID         string
	CaseID     int64
	ActionKind renewal.ActionKind
	Outcome    Outcome
	Detail     string
	At         time.Time
}

// Sink is the append-only action log.
type Sink interface {
	Append(ctx context.Context, caseID int64, kind renewal.ActionKind, outcome Outcome, detail string, at time.Time) error
}

// Severity of an admin notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Notifier is the admin alert channel. Used for call-list escalations and
// run summaries; failures to notify are logged, never fatal to a run.
type Notifier interface {
	Notify(ctx context.Context, title, body string, severity Severity, linkRef string) error
}
