package events

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// EventType identifies a published event.
type EventType string

const (
	EventCaseCreated       EventType = "case.created"
	EventCaseStatusChanged EventType = "case.status_changed"
)

// Event is the envelope published for case lifecycle changes.
type Event struct {
	ID        string
	Type      EventType
	CaseID    string
	Timestamp time.Time
	Payload   any
}

// CaseCreatedPayload describes a newly created case.
type CaseCreatedPayload struct {
	Title    string
	Priority domain.CasePriority
}

// CaseStatusChangedPayload describes a status transition.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus
	NewStatus domain.CaseStatus
}
