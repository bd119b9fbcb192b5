/*
period.go - Monthly reporting period in the beneficiary's timezone

PURPOSE:
  Billing reports cover one calendar month, bounded by LOCAL dates in the
  beneficiary's IANA timezone. A check-in at 23:30 local on the last day of
  the month belongs to that month even though its UTC instant is already in
  the next one.
*/
package billing

import "time"

// Month is a calendar-month reporting period.
type Month struct {
	Year  int
	Month time.Month
}

// Validate checks the month is a real calendar month.
func (m Month) Validate() error {
	if m.Year < 1 || m.Month < time.January || m.Month > time.December {
		return ErrInvalidPeriod
	}
	return nil
}

// Bounds returns the half-open instant range [start, end) of the month in loc.
func (m Month) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether the instant falls inside the month in loc.
func (m Month) Contains(t time.Time, loc *time.Location) bool {
	start, end := m.Bounds(loc)
	return !t.Before(start) && t.Before(end)
}

// LastDay returns the last local date of the month (used for the allowance
// lookup: the rate entry in force at period end governs the allowance).
func (m Month) LastDay(loc *time.Location) time.Time {
	_, end := m.Bounds(loc)
	return end.AddDate(0, 0, -1)
}

func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
