/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

PURPOSE:
  Production persistence for attendance events, beneficiary configs, and
  rate schedules. The same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  The events table is append-only:
  - No UPDATE statements on events
  - No DELETE statements on events
  Anomalous events stay in the stream; the billing report explains them.

KEY TABLES:
  events:        Immutable stream of check-ins/check-outs
  beneficiaries: Per-beneficiary billing configuration
  rate_entries:  Rate schedule steps per beneficiary

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Interface definition
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/homecare/billing-engine/attendance"
	"github.com/homecare/billing-engine/billing"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Events (append-only stream)
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		beneficiary_id TEXT NOT NULL,
		caregiver_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		is_training BOOLEAN DEFAULT FALSE,
		source TEXT NOT NULL DEFAULT 'manual',
		recorded_at TEXT NOT NULL
	);

	-- Hot path: monthly breakdown loads one beneficiary's events by time
	CREATE INDEX IF NOT EXISTS idx_events_beneficiary_timestamp
		ON events(beneficiary_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_caregiver
		ON events(beneficiary_id, caregiver_name);

	-- Beneficiaries
	CREATE TABLE IF NOT EXISTS beneficiaries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT 'FR',
		copay_percent TEXT NOT NULL,
		vat_percent TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Rate schedule steps
	CREATE TABLE IF NOT EXISTS rate_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		beneficiary_id TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		billing_rate TEXT NOT NULL,
		conventioned_rate TEXT NOT NULL,
		allowance_hours TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_entries_beneficiary
		ON rate_entries(beneficiary_id, effective_from);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENTS (append-only)
// =============================================================================

// AppendEvent adds an event to the stream.
func (s *Store) AppendEvent(ctx context.Context, ev attendance.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO events
		(id, beneficiary_id, caregiver_name, kind, timestamp, is_training, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ev.ID,
		ev.BeneficiaryID,
		ev.CaregiverName,
		string(ev.Kind),
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.IsTraining,
		string(ev.Source),
		ev.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrDuplicateEventID
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// EventsInRange returns events with timestamp in [from, to), ascending.
func (s *Store) EventsInRange(ctx context.Context, beneficiaryID string, from, to time.Time) ([]attendance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, beneficiary_id, caregiver_name, kind, timestamp, is_training, source, recorded_at
		FROM events
		WHERE beneficiary_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, recorded_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, beneficiaryID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		var (
			ev                    attendance.Event
			kind, source          string
			timestamp, recordedAt string
		)
		if err := rows.Scan(&ev.ID, &ev.BeneficiaryID, &ev.CaregiverName, &kind,
			&timestamp, &ev.IsTraining, &source, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Kind = billing.EventKind(kind)
		ev.Source = attendance.EventSource(source)
		if ev.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, fmt.Errorf("bad timestamp for event %s: %w", ev.ID, err)
		}
		if ev.RecordedAt, err = time.Parse(time.RFC3339, recordedAt); err != nil {
			return nil, fmt.Errorf("bad recorded_at for event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// BENEFICIARIES
// =============================================================================

// SaveBeneficiary creates or replaces a beneficiary config.
func (s *Store) SaveBeneficiary(ctx context.Context, cfg attendance.BeneficiaryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var vat *string
	if cfg.VATPercent != nil {
		v := cfg.VATPercent.String()
		vat = &v
	}
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO beneficiaries (id, name, timezone, country, copay_percent, vat_percent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			country = excluded.country,
			copay_percent = excluded.copay_percent,
			vat_percent = excluded.vat_percent,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, cfg.Timezone, cfg.Country,
		cfg.CopayPercent.String(), vat, now, now)
	if err != nil {
		return fmt.Errorf("failed to save beneficiary: %w", err)
	}
	return nil
}

// Beneficiary returns a beneficiary config.
func (s *Store) Beneficiary(ctx context.Context, id string) (attendance.BeneficiaryConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, timezone, country, copay_percent, vat_percent
		FROM beneficiaries WHERE id = ?
	`

	var (
		cfg   attendance.BeneficiaryConfig
		copay string
		vat   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cfg.ID, &cfg.Name, &cfg.Timezone, &cfg.Country, &copay, &vat)
	if err == sql.ErrNoRows {
		return attendance.BeneficiaryConfig{}, attendance.ErrBeneficiaryNotFound
	}
	if err != nil {
		return attendance.BeneficiaryConfig{}, fmt.Errorf("failed to load beneficiary: %w", err)
	}

	if cfg.CopayPercent, err = decimal.NewFromString(copay); err != nil {
		return attendance.BeneficiaryConfig{}, fmt.Errorf("bad copay_percent for %s: %w", id, err)
	}
	if vat.Valid {
		v, err := decimal.NewFromString(vat.String)
		if err != nil {
			return attendance.BeneficiaryConfig{}, fmt.Errorf("bad vat_percent for %s: %w", id, err)
		}
		cfg.VATPercent = &v
	}
	return cfg, nil
}

// =============================================================================
// RATE SCHEDULE
// =============================================================================

// SaveRateEntry appends a rate schedule step.
func (s *Store) SaveRateEntry(ctx context.Context, beneficiaryID string, entry billing.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM beneficiaries WHERE id = ?`, beneficiaryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check beneficiary: %w", err)
	}
	if exists == 0 {
		return attendance.ErrBeneficiaryNotFound
	}

	var allowance *string
	if entry.AllowanceHours != nil {
		a := entry.AllowanceHours.String()
		allowance = &a
	}

	query := `
		INSERT INTO rate_entries
		(beneficiary_id, effective_from, billing_rate, conventioned_rate, allowance_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		beneficiaryID,
		entry.EffectiveFrom.UTC().Format("2006-01-02"),
		entry.BillingRate.String(),
		entry.ConventionedRate.String(),
		allowance,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save rate entry: %w", err)
	}
	return nil
}

// RateSchedule returns all rate entries for a beneficiary, ascending.
func (s *Store) RateSchedule(ctx context.Context, beneficiaryID string) (billing.RateSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT effective_from, billing_rate, conventioned_rate, allowance_hours
		FROM rate_entries
		WHERE beneficiary_id = ?
		ORDER BY effective_from ASC
	`

	rows, err := s.db.QueryContext(ctx, query, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate entries: %w", err)
	}
	defer rows.Close()

	var schedule billing.RateSchedule
	for rows.Next() {
		var (
			entry            billing.RateEntry
			effectiveFrom    string
			billingRate      string
			conventionedRate string
			allowance        sql.NullString
		)
		if err := rows.Scan(&effectiveFrom, &billingRate, &conventionedRate, &allowance); err != nil {
			return nil, fmt.Errorf("failed to scan rate entry: %w", err)
		}
		if entry.EffectiveFrom, err = time.Parse("2006-01-02", effectiveFrom); err != nil {
			return nil, fmt.Errorf("bad effective_from: %w", err)
		}
		if entry.BillingRate, err = decimal.NewFromString(billingRate); err != nil {
			return nil, fmt.Errorf("bad billing_rate: %w", err)
		}
		if entry.ConventionedRate, err = decimal.NewFromString(conventionedRate); err != nil {
			return nil, fmt.Errorf("bad conventioned_rate: %w", err)
		}
		if allowance.Valid {
			a, err := decimal.NewFromString(allowance.String)
			if err != nil {
				return nil, fmt.Errorf("bad allowance_hours: %w", err)
			}
			entry.AllowanceHours = &a
		}
		schedule = append(schedule, entry)
	}
	return schedule, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time check that Store implements attendance.Store.
var _ attendance.Store = (*Store)(nil)
