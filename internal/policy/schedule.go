// internal/policy/schedule.go
package policy

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEntry maps one inclusive date range to a fixed due date. Entries
// are non-overlapping by contract; the schedule does not enforce this.
type ScheduleEntry struct {
	From    time.Time
	To      time.Time
	DueDate time.Time
}

// contains reports whether the entry's range includes the given instant.
func (e ScheduleEntry) contains(date time.Time) bool {
	return !date.Before(e.From) && !date.After(e.To)
}

// FixedDueDateSchedule is a dated lookup table of due dates. The zero value
// is the "none configured" schedule and never matches any date.
type FixedDueDateSchedule struct {
	ID      uuid.UUID
	Name    string
	Entries []ScheduleEntry
}

// NoSchedule is the explicit "none configured" schedule.
func NoSchedule() FixedDueDateSchedule {
	return FixedDueDateSchedule{}
}

// DueDateFor returns the due date of the entry whose range contains the
// given date, or false when no entry matches.
func (s FixedDueDateSchedule) DueDateFor(date time.Time) (time.Time, bool) {
	for _, entry := range s.Entries {
		if entry.contains(date) {
			return entry.DueDate, true
		}
	}
	return time.Time{}, false
}

// Limit truncates a calculated due date against the schedule: when an entry
// contains the reference date and its due date precedes the calculated one,
// the schedule wins. With no matching entry the calculated date stands.
func (s FixedDueDateSchedule) Limit(date, calculated time.Time) time.Time {
	if limit, ok := s.DueDateFor(date); ok && limit.Before(calculated) {
		return limit
	}
	return calculated
}
