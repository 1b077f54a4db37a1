package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CaseService coordinates case workflows against the storage port.
type CaseService struct {
	cases      repository.CaseRepository
	dispatcher events.Dispatcher
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	CaseRepo   repository.CaseRepository
	Dispatcher events.Dispatcher
}

// CaseCreateInput describes case creation payload.
type CaseCreateInput struct {
	Title       string
	Description string
	Priority    domain.CasePriority
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		cases:      deps.CaseRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateCase creates a case with status OPEN and equal timestamps. Input is
// re-checked here even though the HTTP layer validates first, so the service
// stays safe when driven directly.
func (s *CaseService) CreateCase(ctx context.Context, input CaseCreateInput) (domain.Case, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Case{}, apperrors.NewValidationError("title must not be blank", nil)
	}
	if _, ok := domain.ParseCasePriority(string(input.Priority)); !ok {
		return domain.Case{}, apperrors.NewValidationError("priority must be one of LOW, MEDIUM, HIGH, CRITICAL",
			map[string]any{"priority": string(input.Priority)})
	}

	now := time.Now().UTC()
	c := domain.Case{
		ID:          uuid.NewString(),
		Title:       title,
		Description: input.Description,
		Status:      domain.CaseStatusOpen,
		Priority:    input.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	saved, err := s.cases.Save(ctx, c)
	if err != nil {
		return domain.Case{}, storageError(err, c.ID)
	}
	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseCreated,
		CaseID: saved.ID,
		Payload: events.CaseCreatedPayload{
			Title:    saved.Title,
			Priority: saved.Priority,
		},
	})
	return saved, nil
}

// GetCase returns a single case by id.
func (s *CaseService) GetCase(ctx context.Context, id string) (domain.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return domain.Case{}, storageError(err, id)
	}
	return c, nil
}

// ListCases returns cases matching the optional raw status/priority filters.
// Filter interpretation belongs to the storage port; values pass through
// unchanged and the storage ordering (newest-created-first) is preserved.
func (s *CaseService) ListCases(ctx context.Context, status, priority *string) ([]domain.Case, error) {
	result, err := s.cases.List(ctx, repository.CaseFilter{Status: status, Priority: priority})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}

// UpdateStatus moves a case to the status named by raw. The raw value is
// normalized (trim + uppercase) before matching; the transition itself is
// ruled on by the entity.
func (s *CaseService) UpdateStatus(ctx context.Context, id, raw string) (domain.Case, error) {
	existing, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return domain.Case{}, storageError(err, id)
	}

	target, ok := domain.ParseCaseStatus(raw)
	if !ok {
		return domain.Case{}, apperrors.NewInvalidStatus(raw)
	}

	updated, err := existing.ChangeStatusTo(target)
	if err != nil {
		var transitionErr *domain.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return domain.Case{}, apperrors.NewConflict("INVALID_STATUS_TRANSITION", transitionErr.Error(), map[string]any{
				"case_id":     transitionErr.CaseID,
				"from_status": string(transitionErr.From),
				"to_status":   string(transitionErr.To),
			})
		}
		return domain.Case{}, apperrors.NewInternalError(err)
	}

	saved, err := s.cases.Save(ctx, updated)
	if err != nil {
		return domain.Case{}, storageError(err, id)
	}
	if saved.Status != existing.Status {
		s.publishEvent(ctx, events.Event{
			Type:   events.EventCaseStatusChanged,
			CaseID: saved.ID,
			Payload: events.CaseStatusChangedPayload{
				OldStatus: existing.Status,
				NewStatus: saved.Status,
			},
		})
	}
	return saved, nil
}

func (s *CaseService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// storageError maps storage port failures onto API error kinds. Anything
// unrecognized stays opaque.
func storageError(err error, caseID string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("case", map[string]any{"id": caseID})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("VERSION_CONFLICT", "case was modified concurrently", map[string]any{"id": caseID})
	default:
		return apperrors.NewInternalError(err)
	}
}
