// internal/domain/clock/clock.go
package clock

import "time"

// Clock abstracts time so the resolver inputs and driver gates stay
// deterministic in tests. Drivers never read time.Now directly.
type Clock interface {
	// Today returns the current calendar date at midnight in the
	// configured location.
	Today() time.Time
	// Now returns the current instant in the configured location.
	Now() time.Time
}

// System is the production clock, fixed to one location so business-hours
// and due-date math agree on what "today" means.
type System struct {
	Location *time.Location
}

func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{Location: loc}
}

func (s *System) Now() time.Time {
	return time.Now().In(s.Location)
}

func (s *System) Today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Location)
}
