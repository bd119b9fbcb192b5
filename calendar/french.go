/*
french.go - French public holiday calendar

PURPOSE:
  Implements the majoration rules for beneficiaries in France:

    Premium100 (x2.0):  May 1 (Fete du Travail), December 25
    Premium25  (x1.25): Jan 1, May 8, Jul 14, Aug 15, Nov 1, Nov 11,
                        and every Sunday
    Normal:             everything else (time-of-day refinement applies
                        in the engine, not here)

PRECEDENCE:
  Full-premium days win over everything: May 1 on a Sunday is still
  Premium100. A fixed holiday falling on a Sunday stays Premium25 -
  majorations never stack.

  Movable feasts (Easter Monday, Ascension, Pentecost Monday) are not
  majorated for home-care billing and are deliberately absent.
*/
package calendar

import (
	"time"

	"github.com/homecare/billing-engine/billing"
)

func init() {
	Register("FR", French{})
}

// French implements billing.MajorationCalendar for France.
type French struct{}

type monthDay struct {
	month time.Month
	day   int
}

// Full-premium days: the whole day bills at x2.0 regardless of time.
var frenchFullPremium = map[monthDay]bool{
	{time.May, 1}:       true,
	{time.December, 25}: true,
}

// Fixed public holidays billed at x1.25 for the whole day.
var frenchHolidays = map[monthDay]bool{
	{time.January, 1}:   true, // Jour de l'An
	{time.May, 8}:       true, // Victoire 1945
	{time.July, 14}:     true, // Fete Nationale
	{time.August, 15}:   true, // Assomption
	{time.November, 1}:  true, // Toussaint
	{time.November, 11}: true, // Armistice
}

// DayClass returns the day-level majoration class for the date.
// Never fails: unmatched dates (including the zero time) are Normal.
func (French) DayClass(t time.Time) billing.MajorationClass {
	if t.IsZero() {
		return billing.Normal
	}
	md := monthDay{t.Month(), t.Day()}
	switch {
	case frenchFullPremium[md]:
		return billing.Premium100
	case frenchHolidays[md]:
		return billing.Premium25
	case t.Weekday() == time.Sunday:
		return billing.Premium25
	default:
		return billing.Normal
	}
}
