package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// SessionsHandler serves the read API for alert sessions.
type SessionsHandler struct {
	service *service.AlertService
	audits  *service.AuditService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(alertService *service.AlertService, auditService *service.AuditService) *SessionsHandler {
	return &SessionsHandler{service: alertService, audits: auditService}
}

// Get GET /v1/sessions/:id.
func (h *SessionsHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return apperrors.NewValidationError("session id required", nil)
	}

	session, err := h.service.GetSession(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionFromDomain(session)})
}

// Events GET /v1/sessions/:id/events.
func (h *SessionsHandler) Events(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return apperrors.NewValidationError("session id required", nil)
	}

	entries, err := h.audits.EventsForSession(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	out := make([]dto.SessionEventResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.SessionEventResponse{
			ID:        entry.ID,
			EventType: entry.EventType,
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}
