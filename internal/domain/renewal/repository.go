// internal/domain/renewal/repository.go
package renewal

import (
	"context"
	"time"
)

// Repository defines the persistence operations for renewal cases.
//
// All status mutation goes through compare-and-swap writes: the update
// carries the status (or follow-up flag) observed at read time as a
// precondition and reports false when the stored value no longer matches.
// A rejected swap means a concurrent run already handled the case and is
// never an error.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Case, error)

	// ListByStatusAndDue returns cases whose status is in statuses, whose
	// due date is on or before dueBefore, and which were created before
	// createdBefore (the import grace window). Ordered by due date
	// ascending so the most urgent cases are processed first.
	ListByStatusAndDue(ctx context.Context, statuses []Status, dueBefore, createdBefore time.Time) ([]*Case, error)

	// ListByStatuses returns all cases in the given statuses regardless of
	// due date, ordered by due date ascending. Used by the backfill pass.
	ListByStatuses(ctx context.Context, statuses []Status) ([]*Case, error)

	// GetOpenByCustomerID returns the customer's case currently sitting in
	// a reminder status, if any. Used by the inbound reply handler to find
	// what a reply refers to.
	GetOpenByCustomerID(ctx context.Context, customerID int64) (*Case, error)

	// CompareAndSwapStatus moves the case from expected to next and records
	// meta on the row. Returns false (and no error) if the stored status is
	// no longer expected.
	CompareAndSwapStatus(ctx context.Context, id int64, expected, next Status, meta ActionMeta) (bool, error)

	// SetFollowUpSent flips follow_up_sent from false to true, stamping
	// sentAt. Returns false if the flag was already set. Write-once; never
	// reversed.
	SetFollowUpSent(ctx context.Context, id int64, sentAt time.Time) (bool, error)

	// MarkResponded moves the case from expected to ONHOLD and stamps
	// response_received_at. Invoked by the inbound reply handler, not by
	// the automated drivers.
	MarkResponded(ctx context.Context, id int64, expected Status, receivedAt time.Time) (bool, error)
}
