package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/http/handlers"
	"github.com/spec-kit/escalation-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Alerts         *handlers.AlertsHandler
	Webhooks       *handlers.WebhooksHandler
	Sessions       *handlers.SessionsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/v1")
	v1.Post("/alerts", cfg.Alerts.Trigger)
	v1.Post("/webhooks/sms", cfg.Webhooks.InboundSMS)

	protected := v1.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/sessions/:id", cfg.Sessions.Get)
	protected.Get("/sessions/:id/events", cfg.Sessions.Events)
}
