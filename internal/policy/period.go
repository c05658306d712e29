// internal/policy/period.go
package policy

import (
	"errors"
	"time"
)

var (
	ErrUnrecognisedInterval = errors.New("the interval in the loan policy is not recognised")
	ErrInvalidDuration      = errors.New("the duration in the loan policy is invalid")
)

// Interval is the calendar unit of a loan period.
type Interval string

const (
	Minutes Interval = "Minutes"
	Hours   Interval = "Hours"
	Days    Interval = "Days"
	Weeks   Interval = "Weeks"
	Months  Interval = "Months"
)

// Period is an immutable duration expressed as an amount of a calendar unit.
type Period struct {
	Duration int
	Interval Interval
}

// IsZero reports whether the period was never configured.
func (p Period) IsZero() bool {
	return p.Duration == 0 && p.Interval == ""
}

// AddTo advances the reference time by the period. Month arithmetic clamps
// to the last day of the target month, so 31 Jan + 1 month is 29 Feb in a
// leap year rather than rolling into March.
func (p Period) AddTo(t time.Time) (time.Time, error) {
	if p.Duration < 1 {
		return time.Time{}, ErrInvalidDuration
	}

	switch p.Interval {
	case Minutes:
		return t.Add(time.Duration(p.Duration) * time.Minute), nil
	case Hours:
		return t.Add(time.Duration(p.Duration) * time.Hour), nil
	case Days:
		return t.AddDate(0, 0, p.Duration), nil
	case Weeks:
		return t.AddDate(0, 0, 7*p.Duration), nil
	case Months:
		return addMonths(t, p.Duration), nil
	default:
		return time.Time{}, ErrUnrecognisedInterval
	}
}

// addMonths adds whole months keeping the day of month where possible and
// clamping to the end of shorter months.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	totalMonths := int(month) - 1 + months
	year += totalMonths / 12
	month = time.Month(totalMonths%12 + 1)

	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, hour, minute, second, t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
