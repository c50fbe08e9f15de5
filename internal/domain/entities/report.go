package entities

import (
	"errors"
	"fmt"
)

// SyncAction identifies the direction of a membership delta.
type SyncAction string

const (
	SyncAdd    SyncAction = "add"
	SyncRemove SyncAction = "remove"
	SyncEnable SyncAction = "enable"
)

// SyncOutcome records the result of one item in a membership-sync batch.
// Skipped marks ids that did not resolve to an entity and were passed over.
type SyncOutcome struct {
	Action  SyncAction `json:"action"`
	ID      string     `json:"id"`
	Skipped bool       `json:"skipped,omitempty"`
	Err     error      `json:"-"`
}

// SyncReport aggregates per-item outcomes of a batch sync. Unlike a
// last-write result, no earlier failure is masked by a later success.
type SyncReport struct {
	Outcomes []SyncOutcome `json:"outcomes"`
}

func (r *SyncReport) record(action SyncAction, id string, skipped bool, err error) {
	r.Outcomes = append(r.Outcomes, SyncOutcome{Action: action, ID: id, Skipped: skipped, Err: err})
}

// Applied records a successfully applied delta.
func (r *SyncReport) Applied(action SyncAction, id string) {
	r.record(action, id, false, nil)
}

// Skipped records an id that did not resolve.
func (r *SyncReport) Skipped(action SyncAction, id string) {
	r.record(action, id, true, nil)
}

// Failed records a delta the store rejected.
func (r *SyncReport) Failed(action SyncAction, id string, err error) {
	r.record(action, id, false, err)
}

// Succeeded reports whether no item in the batch failed. Skipped items do
// not count as failures.
func (r *SyncReport) Succeeded() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return true
}

// Err joins all per-item failures, or returns nil when the batch succeeded.
func (r *SyncReport) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", o.Action, o.ID, o.Err))
		}
	}
	return errors.Join(errs...)
}
