// internal/domain/renewal/status.go
package renewal

// Status is the closed set of workflow states for a renewal case.
// The first six carry a progression rank and are the only values the
// automated drivers ever write; the rest are reached by human decisions
// or inbound customer responses.
type Status string

const (
	StatusNew           Status = "NEW"
	StatusPending       Status = "PENDING"
	StatusReminder1Sent Status = "REMINDER_1_SENT"
	StatusReminder2Sent Status = "REMINDER_2_SENT"
	StatusReminder3Sent Status = "REMINDER_3_SENT"
	StatusToBeCalled    Status = "TO_BE_CALLED"

	StatusOnhold               Status = "ONHOLD"
	StatusToBeContacted        Status = "TO_BE_CONTACTED"
	StatusAppointmentConfirmed Status = "APPOINTMENT_CONFIRMED"
	StatusClosed               Status = "CLOSED"
	StatusCompleted            Status = "COMPLETED"
)

// progressionRank orders the automated statuses. Statuses outside the
// progression (and any unknown value) rank -1, which makes them always
// eligible targets for NeedsAdvance; the drivers' source-status sets are
// what keep Onhold and the terminal states out of automated processing.
var progressionRank = map[Status]int{
	StatusNew:           0,
	StatusPending:       1,
	StatusReminder1Sent: 2,
	StatusReminder2Sent: 3,
	StatusReminder3Sent: 4,
	StatusToBeCalled:    5,
}

// Rank returns the progression rank of s, or -1 for non-progression statuses.
func Rank(s Status) int {
	if r, ok := progressionRank[s]; ok {
		return r
	}
	return -1
}

// NeedsAdvance reports whether moving current to target is a forward move
// in the progression. The automated drivers only ever apply forward moves.
func NeedsAdvance(current, target Status) bool {
	return Rank(target) > Rank(current)
}

// ProgressionSources lists every status the automated drivers may read as a
// source, i.e. everything strictly below the terminal progression rank.
func ProgressionSources() []Status {
	return []Status{StatusNew, StatusPending, StatusReminder1Sent, StatusReminder2Sent, StatusReminder3Sent}
}
