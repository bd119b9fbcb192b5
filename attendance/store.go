/*
store.go - Persistence contract for attendance data

PURPOSE:
  Defines the interface between the attendance domain and the database.
  Different implementations back it with SQLite (production) or memory
  (tests/dev).

APPEND-ONLY CONTRACT:
  The events table is append-only: AppendEvent is the only event write,
  and no update or delete exists. Anomalous events (double check-ins,
  orphan check-outs) stay in the stream and are explained by the billing
  report's discrepancy list.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - attendance/store: In-memory for testing

SEE ALSO:
  - recorder.go: The validated write path on top of this interface
*/
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/homecare/billing-engine/billing"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrBeneficiaryNotFound is returned when a referenced beneficiary
	// does not exist.
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// ErrMissingBeneficiaryID is returned for a config without an ID.
	ErrMissingBeneficiaryID = errors.New("beneficiary id required")

	// ErrMissingCaregiverName is returned for an event without a caregiver.
	ErrMissingCaregiverName = errors.New("caregiver name required")

	// ErrDuplicateEventID is returned when an event ID already exists.
	// Retried submissions reuse IDs; this makes the write path idempotent.
	ErrDuplicateEventID = errors.New("duplicate event id")
)

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store handles persistence of events, beneficiary configs, and rate entries.
// Events are APPEND-ONLY: no update, no delete.
type Store interface {
	// AppendEvent persists an event. Returns ErrDuplicateEventID if the
	// event ID already exists. This is the only event write operation.
	AppendEvent(ctx context.Context, ev Event) error

	// EventsInRange returns a beneficiary's events with Timestamp in
	// [from, to), ordered by Timestamp ascending.
	EventsInRange(ctx context.Context, beneficiaryID string, from, to time.Time) ([]Event, error)

	// SaveBeneficiary creates or replaces a beneficiary config.
	SaveBeneficiary(ctx context.Context, cfg BeneficiaryConfig) error

	// Beneficiary returns a config, or ErrBeneficiaryNotFound.
	Beneficiary(ctx context.Context, id string) (BeneficiaryConfig, error)

	// SaveRateEntry appends a rate schedule entry for a beneficiary.
	SaveRateEntry(ctx context.Context, beneficiaryID string, entry billing.RateEntry) error

	// RateSchedule returns all rate entries for a beneficiary, ordered by
	// EffectiveFrom ascending. Empty if none configured.
	RateSchedule(ctx context.Context, beneficiaryID string) (billing.RateSchedule, error)
}
