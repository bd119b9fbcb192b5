/*
Package calendar provides concrete country majoration calendars.

PURPOSE:
  The billing engine asks a MajorationCalendar which day-level class a
  date falls into; this package answers for specific countries. Calendars
  register themselves by ISO country code so a beneficiary's country can
  select one without the engine knowing any country's rules.

ADDING A COUNTRY:
  Implement billing.MajorationCalendar and register it in an init():

    func init() { calendar.Register("BE", &Belgian{}) }

FALLBACK:
  Unknown country codes get a calendar with no public holidays. Sundays
  and off-hours still majorate - those rules are labor-law generic; only
  the holiday list varies by country.

SEE ALSO:
  - french.go: The French calendar (the observed default configuration)
  - billing/calendar.go: The capability interface
*/
package calendar

import (
	"strings"
	"sync"
	"time"

	"github.com/homecare/billing-engine/billing"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]billing.MajorationCalendar)
)

// Register associates a country code with a calendar. Codes are matched
// case-insensitively. Later registrations replace earlier ones.
func Register(countryCode string, cal billing.MajorationCalendar) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToUpper(countryCode)] = cal
}

// ForCountry returns the calendar registered for the country code, or the
// fallback calendar (Sundays only, no holidays) for unknown codes.
func ForCountry(countryCode string) billing.MajorationCalendar {
	mu.RLock()
	defer mu.RUnlock()
	if cal, ok := registry[strings.ToUpper(countryCode)]; ok {
		return cal
	}
	return Fallback{}
}

// Fallback is the calendar used for countries without a registered
// implementation: no public holidays, Sundays at Premium25.
type Fallback struct{}

func (Fallback) DayClass(t time.Time) billing.MajorationClass {
	if t.IsZero() {
		return billing.Normal
	}
	if t.Weekday() == time.Sunday {
		return billing.Premium25
	}
	return billing.Normal
}
