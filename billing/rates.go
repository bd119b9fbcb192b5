/*
rates.go - Rate schedule step function

PURPOSE:
  A beneficiary's billing rate can change over time (annual revaluation,
  renegotiated contracts). The schedule is a step function: the entry in
  force for a session is the latest entry whose effective-from date is on
  or before the session's local start date.

SINGLE-RATE MODE:
  Beneficiaries configured before schedules existed carry one flat rate.
  FlatSchedule wraps it as a single entry effective since forever, so the
  engine never branches on "schedule vs flat".

SEE ALSO:
  - engine.go: Looks up the entry per session
*/
package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RateEntry is one step of the schedule.
type RateEntry struct {
	// EffectiveFrom is the first local date this entry applies to.
	// Only the year/month/day are significant.
	EffectiveFrom time.Time

	// BillingRate is the amount charged per Normal hour, before VAT,
	// in the beneficiary's currency.
	BillingRate decimal.Decimal

	// ConventionedRate is the insurance reference rate used for the
	// payer split. Usually <= BillingRate; when it exceeds it, the payer
	// share can exceed pre-VAT and the beneficiary share goes negative.
	ConventionedRate decimal.Decimal

	// AllowanceHours is the optional monthly hour allowance (APA).
	// nil means no allowance tracking for this entry.
	AllowanceHours *decimal.Decimal
}

// RateSchedule is a time-ordered list of entries.
type RateSchedule []RateEntry

// FlatSchedule builds a single-entry schedule for backward-compatible
// single-rate beneficiaries.
func FlatSchedule(billingRate, conventionedRate decimal.Decimal) RateSchedule {
	return RateSchedule{{
		BillingRate:      billingRate,
		ConventionedRate: conventionedRate,
	}}
}

// Validate checks structural validity: at least one entry, no negative rates.
func (rs RateSchedule) Validate() error {
	if len(rs) == 0 {
		return ErrNoSchedule
	}
	for _, e := range rs {
		if e.BillingRate.IsNegative() {
			return configErr("billing_rate", e.BillingRate.String(), ErrInvalidRate)
		}
		if e.ConventionedRate.IsNegative() {
			return configErr("conventioned_rate", e.ConventionedRate.String(), ErrInvalidRate)
		}
		if e.AllowanceHours != nil && e.AllowanceHours.IsNegative() {
			return configErr("allowance_hours", e.AllowanceHours.String(), ErrInvalidRate)
		}
	}
	return nil
}

// EntryFor returns the entry in force on the given local date: the latest
// entry with EffectiveFrom <= date. If every entry starts after the date,
// the earliest entry applies (there is always a rate in force).
func (rs RateSchedule) EntryFor(localDate time.Time) RateEntry {
	sorted := make(RateSchedule, len(rs))
	copy(sorted, rs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	day := truncateToDay(localDate)
	entry := sorted[0]
	for _, e := range sorted {
		if truncateToDay(e.EffectiveFrom).After(day) {
			break
		}
		entry = e
	}
	return entry
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
