/*
engine.go - ComputeBreakdown: the single consolidated rate calculation

PURPOSE:
  The one function every rendering surface (screen, CSV, API) calls.
  Historically this math drifted across three near-identical copies in
  display and export code; it lives here once now, and renderers only
  format the output.

STEPS:
  1. Validate configuration (fail fast on structural problems)
  2. Filter events to the reporting month by local time, sort, pair
  3. Divert training sessions into informational per-caregiver hours
  4. Per billable session: rate entry in force at local start date,
     day-level class from the calendar, time-of-day split on Normal days
  5. Aggregate per caregiver, then into period totals
  6. Apply VAT (default 5.5%, overridable)
  7. Split payer vs beneficiary via conventioned rate and co-pay
  8. Report allowance consumption if configured

NUMERIC SEMANTICS:
  Minutes and amounts accumulate as exact decimals. Nothing is rounded
  here; DTO and CSV layers round to 2 decimals at display time so every
  surface reconciles to the cent.

CONCURRENCY:
  Pure function over its inputs. Safe to call concurrently for different
  beneficiaries or periods; no caching or memoization inside.
*/
package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVATPercent is the VAT rate applied when the config leaves it unset.
var DefaultVATPercent = decimal.RequireFromString("5.5")

var oneHundred = decimal.NewFromInt(100)

// Config carries the beneficiary-level billing configuration.
type Config struct {
	// Timezone is the beneficiary's IANA zone name, e.g. "Europe/Paris".
	// All day-level and time-of-day decisions use this zone.
	Timezone string

	// Calendar resolves day-level majoration classes. See the calendar
	// package for country implementations.
	Calendar MajorationCalendar

	// CopayPercent is the share of the conventioned rate the beneficiary
	// pays, in [0, 100].
	CopayPercent decimal.Decimal

	// VATPercent overrides DefaultVATPercent when non-nil. Zero is a valid
	// override (VAT-exempt beneficiaries).
	VATPercent *decimal.Decimal
}

func (c Config) validate() (*time.Location, decimal.Decimal, error) {
	if c.Calendar == nil {
		return nil, decimal.Zero, ErrNilCalendar
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return nil, decimal.Zero, configErr("timezone", c.Timezone, ErrInvalidTimezone)
	}
	if c.CopayPercent.IsNegative() || c.CopayPercent.GreaterThan(oneHundred) {
		return nil, decimal.Zero, configErr("copay_percent", c.CopayPercent.String(), ErrInvalidCopay)
	}
	vat := DefaultVATPercent
	if c.VATPercent != nil {
		vat = *c.VATPercent
	}
	if vat.IsNegative() {
		return nil, decimal.Zero, configErr("vat_percent", vat.String(), ErrInvalidVAT)
	}
	return loc, vat, nil
}

// ComputeBreakdown computes the full billing breakdown for one beneficiary's
// events over one reporting month.
//
// Data anomalies never fail the call - they are reported in the returned
// discrepancy list and excluded from billing. Only structurally invalid
// configuration returns an error.
func ComputeBreakdown(events []AttendanceEvent, schedule RateSchedule, cfg Config, period Month) (*Breakdown, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	loc, vatPercent, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	// Events outside the reporting month (by local time) are ignored.
	var inPeriod []AttendanceEvent
	for _, ev := range events {
		if period.Contains(ev.Timestamp, loc) {
			inPeriod = append(inPeriod, ev)
		}
	}

	sessions, discrepancies := PairSessions(inPeriod)

	payerPerHourFactor := decimal.NewFromInt(1).Sub(cfg.CopayPercent.Div(oneHundred))

	byCaregiver := make(map[string]*CaregiverBreakdown)
	caregiver := func(name string) *CaregiverBreakdown {
		cb := byCaregiver[name]
		if cb == nil {
			cb = &CaregiverBreakdown{
				CaregiverName:   name,
				Classes:         newClassTotals(),
				TotalMinutes:    decimal.Zero,
				TotalAmount:     decimal.Zero,
				TrainingMinutes: decimal.Zero,
			}
			byCaregiver[name] = cb
		}
		return cb
	}

	payerAmount := decimal.Zero
	billedMinutes := decimal.Zero

	for _, s := range sessions {
		cb := caregiver(s.CaregiverName)

		if s.Training {
			cb.TrainingMinutes = cb.TrainingMinutes.Add(s.Minutes())
			continue
		}

		localStart := s.Start.In(loc)
		entry := schedule.EntryFor(localStart)
		dayClass := cfg.Calendar.DayClass(localStart)

		minutes := classMinutes(s, dayClass, loc)
		for class, mins := range minutes {
			if mins.IsZero() {
				continue
			}
			amount := mins.Div(sixty).Mul(entry.BillingRate).Mul(class.Multiplier())
			ct := cb.Classes[class]
			ct.Minutes = ct.Minutes.Add(mins)
			ct.Amount = ct.Amount.Add(amount)
			cb.Classes[class] = ct

			cb.TotalMinutes = cb.TotalMinutes.Add(mins)
			cb.TotalAmount = cb.TotalAmount.Add(amount)
		}

		// The insurer's per-hour contribution is constant regardless of
		// majoration class; premiums fall entirely on the beneficiary.
		sessionMinutes := s.Minutes()
		payerPerHour := entry.ConventionedRate.Mul(payerPerHourFactor)
		payerAmount = payerAmount.Add(sessionMinutes.Div(sixty).Mul(payerPerHour))
		billedMinutes = billedMinutes.Add(sessionMinutes)
	}

	totals := PeriodTotals{Classes: newClassTotals(), PreVAT: decimal.Zero}
	perCaregiver := make([]CaregiverBreakdown, 0, len(byCaregiver))
	for _, cb := range byCaregiver {
		perCaregiver = append(perCaregiver, *cb)
		for class, ct := range cb.Classes {
			tot := totals.Classes[class]
			tot.Minutes = tot.Minutes.Add(ct.Minutes)
			tot.Amount = tot.Amount.Add(ct.Amount)
			totals.Classes[class] = tot
		}
		totals.PreVAT = totals.PreVAT.Add(cb.TotalAmount)
	}
	sortCaregivers(perCaregiver)

	totals.VATAmount = totals.PreVAT.Mul(vatPercent).Div(oneHundred)
	totals.TotalWithVAT = totals.PreVAT.Add(totals.VATAmount)
	totals.PayerAmount = payerAmount
	totals.BeneficiaryAmount = totals.PreVAT.Sub(payerAmount)

	return &Breakdown{
		PerCaregiver:  perCaregiver,
		Totals:        totals,
		Discrepancies: discrepancies,
		Allowance:     allowanceReport(schedule, period, loc, billedMinutes),
	}, nil
}

// classMinutes distributes a session's duration over majoration classes.
// Premium days take the whole session; Normal days get the time-of-day split.
func classMinutes(s Session, dayClass MajorationClass, loc *time.Location) map[MajorationClass]decimal.Decimal {
	if dayClass == Premium25 || dayClass == Premium100 {
		return map[MajorationClass]decimal.Decimal{dayClass: s.Minutes()}
	}
	split := SplitDay(s.Start, s.End, loc)
	return map[MajorationClass]decimal.Decimal{
		Normal:    split.Regular,
		Premium25: split.Early.Add(split.Evening),
	}
}

// allowanceReport builds the informational APA allowance view, or nil when
// the entry in force at period end carries no allowance.
func allowanceReport(schedule RateSchedule, period Month, loc *time.Location, billedMinutes decimal.Decimal) *AllowanceReport {
	entry := schedule.EntryFor(period.LastDay(loc))
	if entry.AllowanceHours == nil {
		return nil
	}
	allowance := *entry.AllowanceHours
	used := billedMinutes.Div(sixty)
	return &AllowanceReport{
		AllowanceHours: allowance,
		UsedHours:      used,
		RemainingHours: allowance.Sub(used),
		UsedValue:      used.Mul(entry.ConventionedRate),
		RemainingValue: allowance.Sub(used).Mul(entry.ConventionedRate),
	}
}

func sortCaregivers(list []CaregiverBreakdown) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CaregiverName < list[j].CaregiverName
	})
}
