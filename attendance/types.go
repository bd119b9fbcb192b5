/*
Package attendance implements the caregiver check-in/check-out domain.

PURPOSE:
  Models the raw event stream the billing engine consumes: caregivers
  checking in and out of a beneficiary's home, recorded via QR scan, NFC
  tap, or a manual entry by an administrator. Events are append-only -
  a mistaken check-in is explained by the billing report's discrepancy
  list, never edited away.

SEE ALSO:
  - store.go: Persistence contract (append-only)
  - recorder.go: Validated event creation
  - billing: Consumes these events via billing.AttendanceEvent
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/homecare/billing-engine/billing"
)

// =============================================================================
// EVENTS - Persisted caregiver actions
// =============================================================================

// EventSource records how the event entered the system.
type EventSource string

const (
	SourceQR     EventSource = "qr"
	SourceNFC    EventSource = "nfc"
	SourceManual EventSource = "manual"
)

// Event is the persisted form of a caregiver action.
// Immutable once written; the store exposes no update or delete.
type Event struct {
	ID            string
	BeneficiaryID string
	CaregiverName string
	Kind          billing.EventKind
	Timestamp     time.Time // when the caregiver acted
	IsTraining    bool
	Source        EventSource
	RecordedAt    time.Time // when the system stored it
}

// ToBilling converts the persisted event to the engine's input shape.
func (e Event) ToBilling() billing.AttendanceEvent {
	return billing.AttendanceEvent{
		ID:            e.ID,
		BeneficiaryID: e.BeneficiaryID,
		CaregiverName: e.CaregiverName,
		Kind:          e.Kind,
		Timestamp:     e.Timestamp,
		IsTraining:    e.IsTraining,
	}
}

// ToBillingEvents converts a slice of persisted events.
func ToBillingEvents(events []Event) []billing.AttendanceEvent {
	out := make([]billing.AttendanceEvent, len(events))
	for i, e := range events {
		out[i] = e.ToBilling()
	}
	return out
}

// =============================================================================
// BENEFICIARY CONFIG - Per-beneficiary billing parameters
// =============================================================================

// BeneficiaryConfig carries everything the engine needs to bill one
// beneficiary, minus the rate schedule (stored separately, it changes
// independently over time).
type BeneficiaryConfig struct {
	ID           string
	Name         string
	Timezone     string // IANA name, e.g. "Europe/Paris"
	Country      string // ISO code selecting the majoration calendar
	CopayPercent decimal.Decimal
	VATPercent   *decimal.Decimal // nil = billing.DefaultVATPercent
}

// Validate checks the config before it is stored. The engine re-validates
// at compute time; this catches mistakes at write time where they are
// cheaper to fix.
func (c BeneficiaryConfig) Validate() error {
	if c.ID == "" {
		return ErrMissingBeneficiaryID
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		return billing.ErrInvalidTimezone
	}
	if c.CopayPercent.IsNegative() || c.CopayPercent.GreaterThan(decimal.NewFromInt(100)) {
		return billing.ErrInvalidCopay
	}
	if c.VATPercent != nil && c.VATPercent.IsNegative() {
		return billing.ErrInvalidVAT
	}
	return nil
}
