package handlers

import (
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)

// CasesHandler manages case endpoints.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := validateCreateRequest(req); len(details) > 0 {
		return apperrors.NewValidationError("request validation failed", details)
	}
	priority, _ := domain.ParseCasePriority(req.Priority)

	created, err := h.service.CreateCase(c.UserContext(), service.CaseCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderLocation, "/cases/"+created.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromCase(created)})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	found, err := h.service.GetCase(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCase(found)})
}

// ListCases GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	var status, priority *string
	if v := c.Query("status"); v != "" {
		status = &v
	}
	if v := c.Query("priority"); v != "" {
		priority = &v
	}

	cases, err := h.service.ListCases(c.UserContext(), status, priority)
	if err != nil {
		return err
	}
	items := make([]dto.CaseResponse, 0, len(cases))
	for _, item := range cases {
		items = append(items, dto.FromCase(item))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PATCH /cases/:id/status.
func (h *CasesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateCaseStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCase(updated)})
}

func validateCreateRequest(req dto.CreateCaseRequest) map[string]any {
	details := map[string]any{}
	if req.Title == "" {
		details["title"] = "required"
	} else if utf8.RuneCountInString(req.Title) > maxTitleLength {
		details["title"] = "must be at most 200 characters"
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		details["description"] = "must be at most 4000 characters"
	}
	if req.Priority == "" {
		details["priority"] = "required"
	} else if _, ok := domain.ParseCasePriority(req.Priority); !ok {
		details["priority"] = "must be one of LOW, MEDIUM, HIGH, CRITICAL"
	}
	return details
}
