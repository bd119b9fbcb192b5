/*
calendar.go - Majoration calendar contract and time-of-day refinement

PURPOSE:
  Defines the capability interface the engine needs from a country holiday
  calendar, plus the 08:00/20:00 time-of-day split applied on ordinary
  weekdays. Concrete country calendars live in the calendar package; the
  engine has no knowledge of any specific country's holiday list.

DAY-LEVEL vs TIME-OF-DAY:
  The calendar answers at DAY granularity only. When it says Premium25 or
  Premium100, the entire session bills at that class. When it says Normal,
  the engine further splits the session by local clock time: minutes before
  08:00 and at/after 20:00 bill at Premium25, the rest at Normal.

OVERNIGHT SESSIONS:
  Both the day-level class and the 08:00/20:00 boundaries anchor to the
  session's LOCAL START DATE. A weekday session running past midnight
  accrues everything after 20:00 on the start day as Premium25 up through
  checkout. Inherited behavior; see DESIGN.md for the open question on
  very long overnight shifts.

SEE ALSO:
  - calendar/french.go: The French calendar implementation
  - engine.go: Applies the refinement per session
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Day window boundaries for the time-of-day refinement, in local hours.
const (
	DayWindowStartHour = 8  // before 08:00 local -> Premium25
	DayWindowEndHour   = 20 // at/after 20:00 local -> Premium25
)

// MajorationCalendar maps a calendar date to its day-level majoration class.
//
// Implementations must never fail: any date not matching a rule (including
// the zero time) is Normal. Malformed date strings are a caller problem,
// validated at the boundary before reaching the engine.
type MajorationCalendar interface {
	// DayClass returns the day-level class for the given local date.
	// Only the year/month/day of t are significant.
	DayClass(t time.Time) MajorationClass
}

// DaySplit is the result of refining a Normal-day session by time of day.
// Invariant: Early + Regular + Evening == the session's total minutes,
// exactly - no minute lost or double-counted.
type DaySplit struct {
	Early   decimal.Decimal // minutes before 08:00 local
	Regular decimal.Decimal // minutes in [08:00, 20:00) local
	Evening decimal.Decimal // minutes at/after 20:00 local
}

// SplitDay splits the wall-clock duration of [start, end] in loc into the
// three majoration windows, anchored to start's local calendar day.
func SplitDay(start, end time.Time, loc *time.Location) DaySplit {
	ls, le := start.In(loc), end.In(loc)

	windowStart := time.Date(ls.Year(), ls.Month(), ls.Day(), DayWindowStartHour, 0, 0, 0, loc)
	windowEnd := time.Date(ls.Year(), ls.Month(), ls.Day(), DayWindowEndHour, 0, 0, 0, loc)

	return DaySplit{
		Early:   overlapMinutes(ls, le, time.Time{}, windowStart),
		Regular: overlapMinutes(ls, le, windowStart, windowEnd),
		Evening: overlapMinutes(ls, le, windowEnd, time.Time{}),
	}
}

// overlapMinutes returns the minutes of [start, end] inside [from, to).
// A zero from means "unbounded below"; a zero to means "unbounded above".
func overlapMinutes(start, end, from, to time.Time) decimal.Decimal {
	lo := start
	if !from.IsZero() && from.After(lo) {
		lo = from
	}
	hi := end
	if !to.IsZero() && to.Before(hi) {
		hi = to
	}
	if !hi.After(lo) {
		return decimal.Zero
	}
	secs := int64(hi.Sub(lo) / time.Second)
	return decimal.NewFromInt(secs).Div(sixty)
}
