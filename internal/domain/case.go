package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingTargetStatus signals a caller bug: ChangeStatusTo was invoked
// with an empty target. Distinct from a rejected transition.
var ErrMissingTargetStatus = errors.New("target status must not be empty")

// InvalidTransitionError reports a status change the lifecycle rules reject.
type InvalidTransitionError struct {
	CaseID string
	From   CaseStatus
	To     CaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for case %s: %s -> %s", e.CaseID, e.From, e.To)
}

// Case is an immutable work-item record. State changes produce new values;
// a Case is never mutated in place.
type Case struct {
	ID          string
	Title       string
	Description string
	Status      CaseStatus
	Priority    CasePriority
	AssigneeID  *string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChangeStatusTo returns a copy of the case moved to target, refreshing
// UpdatedAt. Requesting the current status is a no-op that returns the
// receiver unchanged without consulting the transition table. Disallowed
// transitions fail with *InvalidTransitionError.
func (c Case) ChangeStatusTo(target CaseStatus) (Case, error) {
	if target == "" {
		return Case{}, ErrMissingTargetStatus
	}
	if c.Status == target {
		return c, nil
	}
	if !c.Status.CanTransitionTo(target) {
		return Case{}, &InvalidTransitionError{CaseID: c.ID, From: c.Status, To: target}
	}

	updated := c
	updated.Status = target
	updated.UpdatedAt = time.Now().UTC()
	return updated, nil
}
