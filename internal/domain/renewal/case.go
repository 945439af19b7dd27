// internal/domain/renewal/case.go
package renewal

import (
	"database/sql"
	"time"
)

// Case tracks one inspection due-date cycle for a customer vehicle.
// Corresponds to the 'renewal_cases' table.
type Case struct {
	ID                 int64
	CustomerID         int64        // Foreign key to customers.id, owned by the import collaborator
	DueDate            time.Time    // Immutable after creation
	Status             Status
	LastActionKind     sql.NullString // Last automated action taken, if any
	LastActionAt       sql.NullTime
	FollowUpSent       bool
	FollowUpSentAt     sql.NullTime
	ResponseReceivedAt sql.NullTime // Set when an inbound reply moves the case to ONHOLD
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ActionKind tags what an automated mutation did, both on the case row
// (last_action_kind) and in the audit log.
type ActionKind string

const (
	ActionKindReminder1      ActionKind = "SEND_REMINDER_1"
	ActionKindReminder2      ActionKind = "SEND_REMINDER_2"
	ActionKindReminder3      ActionKind = "SEND_REMINDER_3"
	ActionKindMarkForCall    ActionKind = "MARK_FOR_CALL"
	ActionKindFollowUp       ActionKind = "SEND_FOLLOW_UP"
	ActionKindCatchUpPrefix  ActionKind = "CATCHUP_"
	ActionKindInboundOnhold  ActionKind = "INBOUND_ONHOLD"
)

// ActionKindForTarget maps a resolver target to the action tag recorded for
// it. catchUp distinguishes bulk-recovered sends from routine ones in later
// audits.
func ActionKindForTarget(target Status, catchUp bool) ActionKind {
	var kind ActionKind
	switch target {
	case StatusReminder1Sent:
		kind = ActionKindReminder1
	case StatusReminder2Sent:
		kind = ActionKindReminder2
	case StatusReminder3Sent:
		kind = ActionKindReminder3
	case StatusToBeCalled:
		return ActionKindMarkForCall
	default:
		return ""
	}
	if catchUp {
		return ActionKindCatchUpPrefix + kind
	}
	return kind
}

// ActionMeta is persisted alongside a successful compare-and-swap so the
// case row records what was done and when.
type ActionMeta struct {
	Kind ActionKind
	At   time.Time
}
