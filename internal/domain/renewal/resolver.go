// internal/domain/renewal/resolver.go
package renewal

import "time"

// Action is what a resolver decision requires the caller to do.
type Action string

const (
	ActionNone         Action = "NONE"
	ActionSendTemplate Action = "SEND_TEMPLATE"
	ActionMarkForCall  Action = "MARK_FOR_CALL"
)

// Decision is the resolver's output: where the case belongs given its
// days-until-due, and what must happen to get it there.
type Decision struct {
	Target Status
	Action Action
}

// Resolve computes the target status and required action for a case that is
// daysUntilDue calendar days away from its due date. Thresholds are
// evaluated in order, first match wins. Resolve is deterministic and
// side-effect-free; it never looks at channel availability or time of day
// (those are driver-level gates), and it never targets ONHOLD or a terminal
// state. The current status only matters to the caller via NeedsAdvance.
func Resolve(daysUntilDue int, _ Status) Decision {
	switch {
	case daysUntilDue <= 3:
		return Decision{Target: StatusToBeCalled, Action: ActionMarkForCall}
	case daysUntilDue <= 7:
		return Decision{Target: StatusReminder3Sent, Action: ActionSendTemplate}
	case daysUntilDue <= 15:
		return Decision{Target: StatusReminder2Sent, Action: ActionSendTemplate}
	case daysUntilDue <= 30:
		return Decision{Target: StatusReminder1Sent, Action: ActionSendTemplate}
	default:
		return Decision{Target: StatusNew, Action: ActionNone}
	}
}

// DaysUntilDue counts calendar days from today to due, both normalized to
// midnight, so a case due later today yields 0 and an overdue case yields a
// negative count.
func DaysUntilDue(today, due time.Time) int {
	t := Midnight(today)
	d := Midnight(due)
	// Round absorbs DST-shortened or -lengthened days.
	return int(d.Sub(t).Round(24*time.Hour) / (24 * time.Hour))
}

// Midnight truncates ts to the start of its calendar day, keeping location.
func Midnight(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}
