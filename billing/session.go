/*
session.go - Pairing check-ins with check-outs

PURPOSE:
  Turns a flat event stream into sessions plus a discrepancy report in a
  single pure pass. This is the one place pairing logic lives; every
  rendering surface works from the same session list.

PAIRING RULE:
  Events are processed in ascending timestamp order. For each caregiver
  name, a check-out closes the EARLIEST still-open check-in with a strictly
  earlier timestamp (FIFO). A check-in left open at the end of the stream is
  an open session (zero billable hours). A check-out with no open check-in
  is an orphan.

ANOMALIES:
  Two consecutive same-kind events for one caregiver are surfaced as a
  duplicate_action discrepancy. Pairing continues regardless - the report
  explains the data, it never censors it.

SEE ALSO:
  - engine.go: Consumes sessions and discrepancies
*/
package billing

import "sort"

// caregiverState tracks the pairing fold for one caregiver name.
type caregiverState struct {
	open     []AttendanceEvent // FIFO queue of unmatched check-ins
	lastKind EventKind
	seen     bool
}

// PairSessions pairs check-ins with check-outs per caregiver name.
//
// The input is sorted by the function itself; callers never need to
// pre-sort. The fold is pure: it allocates fresh output and leaves the
// input untouched, so running it twice yields identical results.
func PairSessions(events []AttendanceEvent) ([]Session, []Discrepancy) {
	sorted := make([]AttendanceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var (
		sessions      []Session
		discrepancies []Discrepancy
		states        = make(map[string]*caregiverState)
	)

	for _, ev := range sorted {
		st := states[ev.CaregiverName]
		if st == nil {
			st = &caregiverState{}
			states[ev.CaregiverName] = st
		}

		if st.seen && st.lastKind == ev.Kind {
			discrepancies = append(discrepancies, Discrepancy{
				Type:          DiscrepancyDuplicateAction,
				CaregiverName: ev.CaregiverName,
				EventID:       ev.ID,
				At:            ev.Timestamp,
			})
		}
		st.lastKind = ev.Kind
		st.seen = true

		switch ev.Kind {
		case CheckIn:
			st.open = append(st.open, ev)

		case CheckOut:
			// Close the earliest open check-in with a strictly earlier
			// timestamp. Equal timestamps do not pair.
			if len(st.open) > 0 && st.open[0].Timestamp.Before(ev.Timestamp) {
				in := st.open[0]
				st.open = st.open[1:]
				sessions = append(sessions, Session{
					CaregiverName: ev.CaregiverName,
					CheckInID:     in.ID,
					CheckOutID:    ev.ID,
					Start:         in.Timestamp,
					End:           ev.Timestamp,
					Training:      in.IsTraining,
				})
			} else {
				discrepancies = append(discrepancies, Discrepancy{
					Type:          DiscrepancyOrphanCheckout,
					CaregiverName: ev.CaregiverName,
					EventID:       ev.ID,
					At:            ev.Timestamp,
				})
			}
		}
	}

	// Anything still open is an active session: reported, not billed.
	// Iterate over the sorted stream (not the map) for deterministic order.
	for _, ev := range sorted {
		if ev.Kind != CheckIn {
			continue
		}
		for _, open := range states[ev.CaregiverName].open {
			if open.ID == ev.ID {
				discrepancies = append(discrepancies, Discrepancy{
					Type:          DiscrepancyOpenSession,
					CaregiverName: ev.CaregiverName,
					EventID:       ev.ID,
					At:            ev.Timestamp,
				})
				break
			}
		}
	}

	return sessions, discrepancies
}
