/*
recorder.go - Validated check-in/check-out writes

PURPOSE:
  The single write path for attendance events. Validates the structural
  basics (known beneficiary, non-empty caregiver name), assigns UUIDs,
  and stamps RecordedAt. The recorder deliberately does NOT inspect
  pairing state: a second check-in without a check-out is recorded as-is
  and surfaced later by the billing report. Field workers lose signal;
  the stream must accept what actually happened.

SEE ALSO:
  - store.go: The persistence contract underneath
  - billing/session.go: Where anomalies become discrepancies
*/
package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/homecare/billing-engine/billing"
)

// Recorder writes validated attendance events.
type Recorder struct {
	Store Store
	Now   func() time.Time // injectable clock for tests; nil = time.Now
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{Store: store}
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// CheckInRequest carries the fields of a check-in or check-out submission.
type CheckInRequest struct {
	BeneficiaryID string
	CaregiverName string
	At            time.Time // zero = now
	IsTraining    bool
	Source        EventSource
}

// CheckIn records a check-in event and returns it.
func (r *Recorder) CheckIn(ctx context.Context, req CheckInRequest) (Event, error) {
	return r.record(ctx, req, billing.CheckIn)
}

// CheckOut records a check-out event and returns it.
func (r *Recorder) CheckOut(ctx context.Context, req CheckInRequest) (Event, error) {
	return r.record(ctx, req, billing.CheckOut)
}

func (r *Recorder) record(ctx context.Context, req CheckInRequest, kind billing.EventKind) (Event, error) {
	if req.CaregiverName == "" {
		return Event{}, ErrMissingCaregiverName
	}
	if _, err := r.Store.Beneficiary(ctx, req.BeneficiaryID); err != nil {
		return Event{}, err
	}

	at := req.At
	if at.IsZero() {
		at = r.now()
	}
	source := req.Source
	if source == "" {
		source = SourceManual
	}

	ev := Event{
		ID:            uuid.NewString(),
		BeneficiaryID: req.BeneficiaryID,
		CaregiverName: req.CaregiverName,
		Kind:          kind,
		Timestamp:     at.UTC(),
		IsTraining:    req.IsTraining,
		Source:        source,
		RecordedAt:    r.now().UTC(),
	}
	if err := r.Store.AppendEvent(ctx, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
