package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateCaseStatusRequest payload.
type UpdateCaseStatusRequest struct {
	Status string `json:"status"`
}

// CaseResponse is the read-only projection of a case.
type CaseResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.CaseStatus   `json:"status"`
	Priority    domain.CasePriority `json:"priority"`
	AssigneeID  *string             `json:"assignee_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// FromCase maps a domain case to its projection.
func FromCase(c domain.Case) CaseResponse {
	return CaseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		Priority:    c.Priority,
		AssigneeID:  c.AssigneeID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
