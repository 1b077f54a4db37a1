package domain

import "strings"

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "OPEN"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusDone       CaseStatus = "DONE"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// allowedTransitions defines the full lifecycle:
// OPEN -> IN_PROGRESS -> DONE -> CLOSED. CLOSED is terminal.
var allowedTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusOpen:       {CaseStatusInProgress},
	CaseStatusInProgress: {CaseStatusDone},
	CaseStatusDone:       {CaseStatusClosed},
	CaseStatusClosed:     {},
}

// CanTransitionTo reports whether moving from s to target is permitted.
// An empty or unknown target is never permitted.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseCaseStatus normalizes a raw status string (trim + uppercase) and maps
// it to a lifecycle state. Blank input or an unknown value yields false.
func ParseCaseStatus(raw string) (CaseStatus, bool) {
	normalized := CaseStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch normalized {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusDone, CaseStatusClosed:
		return normalized, true
	}
	return "", false
}
