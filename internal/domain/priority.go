package domain

import "strings"

// CasePriority enumerates urgency levels. The order carries no business
// meaning; it is a fixed set, not a ranking the domain acts on.
type CasePriority string

const (
	CasePriorityLow      CasePriority = "LOW"
	CasePriorityMedium   CasePriority = "MEDIUM"
	CasePriorityHigh     CasePriority = "HIGH"
	CasePriorityCritical CasePriority = "CRITICAL"
)

// ParseCasePriority normalizes a raw priority string and maps it to a member
// of the priority set. Blank input or an unknown value yields false.
func ParseCasePriority(raw string) (CasePriority, bool) {
	normalized := CasePriority(strings.ToUpper(strings.TrimSpace(raw)))
	switch normalized {
	case CasePriorityLow, CasePriorityMedium, CasePriorityHigh, CasePriorityCritical:
		return normalized, true
	}
	return "", false
}
