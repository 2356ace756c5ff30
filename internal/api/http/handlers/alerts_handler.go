package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// AlertsHandler manages the device trigger endpoint.
type AlertsHandler struct {
	service *service.AlertService
}

// NewAlertsHandler constructs handler.
func NewAlertsHandler(alertService *service.AlertService) *AlertsHandler {
	return &AlertsHandler{service: alertService}
}

// Trigger POST /v1/alerts.
func (h *AlertsHandler) Trigger(c *fiber.Ctx) error {
	apiKey := c.Get("X-API-Key")
	if apiKey == "" {
		return apperrors.NewUnauthorized("missing api key")
	}

	var req dto.TriggerAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ClientID == "" {
		return apperrors.NewValidationError("client_id required", nil)
	}

	session, err := h.service.TriggerAlert(c.UserContext(), service.TriggerInput{
		ClientID:     req.ClientID,
		APIKey:       apiKey,
		DeviceNumber: req.DeviceNumber,
		Language:     req.Language,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.SessionFromDomain(session)})
}
