/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All configuration errors in one place. Note the deliberate asymmetry:
  data anomalies (open sessions, orphan checkouts, duplicate actions) are
  NOT errors - they land in the Breakdown's discrepancy report. Only
  structurally invalid input fails a ComputeBreakdown call.

ERROR CATEGORIES:
  1. Configuration errors - bad rates, bad timezone, bad percentages
  2. Period errors - malformed reporting period

USAGE:
  if errors.Is(err, billing.ErrInvalidRate) { ... }

SEE ALSO:
  - engine.go: Validates configuration before computing
  - rates.go: Rate schedule validation
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoSchedule is returned when no rate schedule is supplied.
	ErrNoSchedule = errors.New("no rate schedule configured")

	// ErrInvalidRate is returned for a negative billing or conventioned rate.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrInvalidTimezone is returned when the beneficiary timezone is not a
	// loadable IANA zone name.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidCopay is returned for a co-payment percentage outside [0,100].
	ErrInvalidCopay = errors.New("co-payment percentage out of range")

	// ErrInvalidVAT is returned for a negative VAT percentage.
	ErrInvalidVAT = errors.New("invalid VAT percentage")

	// ErrNilCalendar is returned when no majoration calendar is supplied.
	ErrNilCalendar = errors.New("majoration calendar required")

	// ErrInvalidPeriod is returned for a malformed reporting period.
	ErrInvalidPeriod = errors.New("invalid reporting period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError wraps a sentinel with the offending field and value so HTTP
// handlers can report actionable messages without string matching.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("billing config: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field, value string, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// IsConfigError returns true if the error is a fatal configuration error
// (as opposed to an infrastructure failure).
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoSchedule) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrInvalidCopay) ||
		errors.Is(err, ErrInvalidVAT) ||
		errors.Is(err, ErrNilCalendar) ||
		errors.Is(err, ErrInvalidPeriod)
}
