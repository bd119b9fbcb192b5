/*
Package billing implements the rate allocation engine.

PURPOSE:
  Given a month of caregiver check-in/check-out events for one beneficiary,
  this package pairs them into sessions, classifies every minute into a
  majoration class (normal, +25%, +100%) using a country holiday calendar
  and time-of-day rules, applies a possibly time-varying rate schedule, and
  produces a full financial breakdown: per-caregiver hours and amounts,
  period totals with VAT, and the payer/beneficiary co-payment split.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceEvent: One caregiver action (check-in or check-out)
  - Session: A derived (check-in, check-out) pair for one caregiver
  - MajorationClass: Rate multiplier bucket (Normal, Premium25, Premium100)
  - Discrepancy: An unpaired or anomalous event, reported but never billed
  - CaregiverBreakdown / PeriodTotals: The aggregate output

DESIGN PRINCIPLES:
  1. Purity: The engine performs no I/O and holds no state between calls
  2. Precision: decimal.Decimal for money and minutes - no float drift
  3. Sum first, round last: intermediate amounts are never rounded; callers
     round to 2 decimals at the display boundary so CSV and screen reconcile
  4. Anomalies are data, not errors: bad pairings go into the discrepancy
     report, never into an error return

SEE ALSO:
  - session.go: Event pairing fold
  - calendar.go: Majoration calendar contract and time-of-day split
  - rates.go: Rate schedule step function
  - engine.go: ComputeBreakdown orchestration
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EVENTS - Raw caregiver actions
// =============================================================================

type EventKind string

const (
	CheckIn  EventKind = "check_in"
	CheckOut EventKind = "check_out"
)

// AttendanceEvent is one caregiver action. Events are immutable once created;
// the upstream store appends only and never edits in place.
//
// CaregiverName is the pairing key within one beneficiary's event stream.
// Names are not globally unique across beneficiaries, but the engine only
// ever sees a single beneficiary's events per call.
type AttendanceEvent struct {
	ID            string
	BeneficiaryID string
	CaregiverName string
	Kind          EventKind
	Timestamp     time.Time // UTC-backed instant
	IsTraining    bool      // training sessions are tracked but never billed
}

// =============================================================================
// SESSIONS - Paired (check-in, check-out) intervals
// =============================================================================

type Session struct {
	CaregiverName string
	CheckInID     string
	CheckOutID    string
	Start         time.Time
	End           time.Time
	Training      bool
}

// Minutes returns the session duration in exact decimal minutes.
// Computed from seconds so sub-minute checkouts are not truncated.
func (s Session) Minutes() decimal.Decimal {
	secs := int64(s.End.Sub(s.Start) / time.Second)
	return decimal.NewFromInt(secs).Div(sixty)
}

var sixty = decimal.NewFromInt(60)

// =============================================================================
// MAJORATION CLASSES - Rate multiplier buckets
// =============================================================================

type MajorationClass string

const (
	Normal     MajorationClass = "normal"      // x1.0
	Premium25  MajorationClass = "premium_25"  // x1.25 (Sundays, holidays, off-hours)
	Premium100 MajorationClass = "premium_100" // x2.0 (May 1, Dec 25)
)

// Classes lists all majoration classes in billing order.
var Classes = []MajorationClass{Normal, Premium25, Premium100}

var multipliers = map[MajorationClass]decimal.Decimal{
	Normal:     decimal.NewFromInt(1),
	Premium25:  decimal.RequireFromString("1.25"),
	Premium100: decimal.NewFromInt(2),
}

// Multiplier returns the rate multiplier for the class.
// Unknown classes multiply by 1 (fallback-safe, same policy as the calendar).
func (c MajorationClass) Multiplier() decimal.Decimal {
	if m, ok := multipliers[c]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Premium returns the per-hour surcharge over the base rate
// (0 for Normal, 0.25 for Premium25, 1.0 for Premium100).
func (c MajorationClass) Premium() decimal.Decimal {
	return c.Multiplier().Sub(decimal.NewFromInt(1))
}

// =============================================================================
// DISCREPANCIES - Unpaired or anomalous events
// =============================================================================

type DiscrepancyType string

const (
	// DiscrepancyOpenSession: a check-in with no matching check-out in the
	// period. Still active; contributes zero billable hours until closed.
	DiscrepancyOpenSession DiscrepancyType = "open_session"

	// DiscrepancyOrphanCheckout: a check-out with no preceding open check-in.
	DiscrepancyOrphanCheckout DiscrepancyType = "orphan_checkout"

	// DiscrepancyDuplicateAction: two consecutive same-kind events for one
	// caregiver. Surfaced, never silently dropped; pairing continues.
	DiscrepancyDuplicateAction DiscrepancyType = "duplicate_action"
)

type Discrepancy struct {
	Type          DiscrepancyType
	CaregiverName string
	EventID       string
	At            time.Time
}

// =============================================================================
// BREAKDOWN OUTPUT - Derived, read-only aggregates
// =============================================================================

// ClassTotals accumulates hours (as minutes) and billed amount for one
// majoration class. Minutes stay in minutes internally; conversion to
// fractional hours happens only when multiplying by an hourly rate.
type ClassTotals struct {
	Minutes decimal.Decimal
	Amount  decimal.Decimal
}

// Hours converts the accumulated minutes to fractional hours.
func (ct ClassTotals) Hours() decimal.Decimal {
	return ct.Minutes.Div(sixty)
}

// CaregiverBreakdown aggregates one caregiver's billable work for the period.
type CaregiverBreakdown struct {
	CaregiverName   string
	Classes         map[MajorationClass]ClassTotals
	TotalMinutes    decimal.Decimal
	TotalAmount     decimal.Decimal
	TrainingMinutes decimal.Decimal // informational, never billed
}

// PeriodTotals sums all caregiver breakdowns for the reporting period.
type PeriodTotals struct {
	Classes map[MajorationClass]ClassTotals

	PreVAT       decimal.Decimal
	VATAmount    decimal.Decimal
	TotalWithVAT decimal.Decimal

	// Payer split. The insurer contributes a constant per-hour amount
	// derived from the conventioned rate; the beneficiary absorbs the
	// co-pay share, any excess of billing rate over conventioned rate,
	// and 100% of majoration premiums.
	PayerAmount       decimal.Decimal
	BeneficiaryAmount decimal.Decimal
}

// AllowanceReport tracks consumption against an optional monthly hour
// allowance. Purely informational: it never alters billing amounts, and
// unused hours do not carry to the next period.
type AllowanceReport struct {
	AllowanceHours decimal.Decimal
	UsedHours      decimal.Decimal
	RemainingHours decimal.Decimal // may be negative on overrun
	UsedValue      decimal.Decimal // hours x conventioned rate
	RemainingValue decimal.Decimal
}

// Breakdown is the complete engine output for one beneficiary and period.
type Breakdown struct {
	PerCaregiver  []CaregiverBreakdown // sorted by caregiver name
	Totals        PeriodTotals
	Discrepancies []Discrepancy
	Allowance     *AllowanceReport // nil when no allowance configured
}

func newClassTotals() map[MajorationClass]ClassTotals {
	m := make(map[MajorationClass]ClassTotals, len(Classes))
	for _, c := range Classes {
		m[c] = ClassTotals{Minutes: decimal.Zero, Amount: decimal.Zero}
	}
	return m
}
