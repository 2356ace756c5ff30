package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/inbound"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// WebhooksHandler receives inbound-message callbacks from the delivery
// provider.
type WebhooksHandler struct {
	router *inbound.Router
}

// NewWebhooksHandler constructs handler.
func NewWebhooksHandler(router *inbound.Router) *WebhooksHandler {
	return &WebhooksHandler{router: router}
}

// InboundSMS POST /v1/webhooks/sms. Replies for sessions we no longer track
// are acknowledged so the provider stops retrying them.
func (h *WebhooksHandler) InboundSMS(c *fiber.Ctx) error {
	var req dto.InboundSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.From == "" || req.To == "" {
		return apperrors.NewValidationError("From and To required", nil)
	}

	err := h.router.HandleReply(c.UserContext(), inbound.Message{
		From: req.From,
		To:   req.To,
		Body: req.Body,
	})
	if err != nil {
		if errors.Is(err, inbound.ErrUnknownSender) {
			return apperrors.NewForbidden("sender is not a configured responder")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
