// Package store provides an in-memory attendance.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/homecare/billing-engine/attendance"
	"github.com/homecare/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	events        map[string][]attendance.Event // keyed by beneficiary ID
	eventIDs      map[string]bool
	beneficiaries map[string]attendance.BeneficiaryConfig
	rates         map[string]billing.RateSchedule
}

func NewMemory() *Memory {
	return &Memory{
		events:        make(map[string][]attendance.Event),
		eventIDs:      make(map[string]bool),
		beneficiaries: make(map[string]attendance.BeneficiaryConfig),
		rates:         make(map[string]billing.RateSchedule),
	}
}

// AppendEvent adds a single event. Append-only.
func (m *Memory) AppendEvent(_ context.Context, ev attendance.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.eventIDs[ev.ID] {
		return attendance.ErrDuplicateEventID
	}

	evs := m.events[ev.BeneficiaryID]

	// Binary search for the insertion point keeps the slice timestamp-ordered.
	i := sort.Search(len(evs), func(i int) bool {
		return evs[i].Timestamp.After(ev.Timestamp)
	})
	evs = append(evs, attendance.Event{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	m.events[ev.BeneficiaryID] = evs

	m.eventIDs[ev.ID] = true
	return nil
}

func (m *Memory) EventsInRange(_ context.Context, beneficiaryID string, from, to time.Time) ([]attendance.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.Event
	for _, ev := range m.events[beneficiaryID] {
		if !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (m *Memory) SaveBeneficiary(_ context.Context, cfg attendance.BeneficiaryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beneficiaries[cfg.ID] = cfg
	return nil
}

func (m *Memory) Beneficiary(_ context.Context, id string) (attendance.BeneficiaryConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.beneficiaries[id]
	if !ok {
		return attendance.BeneficiaryConfig{}, attendance.ErrBeneficiaryNotFound
	}
	return cfg, nil
}

func (m *Memory) SaveRateEntry(_ context.Context, beneficiaryID string, entry billing.RateEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beneficiaries[beneficiaryID]; !ok {
		return attendance.ErrBeneficiaryNotFound
	}
	rs := append(m.rates[beneficiaryID], entry)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].EffectiveFrom.Before(rs[j].EffectiveFrom)
	})
	m.rates[beneficiaryID] = rs
	return nil
}

func (m *Memory) RateSchedule(_ context.Context, beneficiaryID string) (billing.RateSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(billing.RateSchedule, len(m.rates[beneficiaryID]))
	copy(result, m.rates[beneficiaryID])
	return result, nil
}
