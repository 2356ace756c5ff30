package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/auth"
	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/repository"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// Template kinds looked up per client and language.
const (
	templateInitial  = "initial"
	templateReminder = "reminder"
	templateFallback = "fallback"
)

// sessionCreator covers the session-store operations the trigger flow needs.
type sessionCreator interface {
	Create(ctx context.Context, session *domain.AlertSession) error
	GetCurrentSession(ctx context.Context, sessionID string) (*domain.AlertSession, error)
}

// escalationStarter starts an escalation run.
type escalationStarter interface {
	StartSession(ctx context.Context, info domain.AlertInfo) error
}

// AlertService turns device triggers into escalation runs.
type AlertService struct {
	clients   repository.ClientRepository
	sessions  sessionCreator
	escalator escalationStarter
	defaults  config.EscalationConfig
	logger    *zap.Logger
}

// AlertDependencies bundles collaborators for the alert service.
type AlertDependencies struct {
	ClientRepo repository.ClientRepository
	Sessions   sessionCreator
	Escalator  escalationStarter
	Defaults   config.EscalationConfig
	Logger     *zap.Logger
}

// NewAlertService constructs the service.
func NewAlertService(deps AlertDependencies) *AlertService {
	return &AlertService{
		clients:   deps.ClientRepo,
		sessions:  deps.Sessions,
		escalator: deps.Escalator,
		defaults:  deps.Defaults,
		logger:    deps.Logger,
	}
}

// TriggerInput describes one device trigger.
type TriggerInput struct {
	ClientID     string
	APIKey       string
	DeviceNumber string
	Language     string
}

// TriggerAlert verifies the device, creates the session and starts the
// escalation run.
func (s *AlertService) TriggerAlert(ctx context.Context, input TriggerInput) (*domain.AlertSession, error) {
	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", nil)
		}
		return nil, err
	}
	if err := auth.CompareAPIKey(client.APIKeyHash, input.APIKey); err != nil {
		return nil, apperrors.NewUnauthorized("invalid api key")
	}

	language := input.Language
	if language == "" {
		language = client.Language
	}

	responders, fallbacks, err := s.clients.GetResponders(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	if len(responders) == 0 {
		return nil, apperrors.NewValidationError("client has no responders configured", nil)
	}

	categories, err := s.clients.GetCategories(ctx, client.ID, language)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("client has no incident categories configured",
				map[string]any{"language": language})
		}
		return nil, err
	}

	templates, err := s.clients.GetTemplates(ctx, client.ID, language)
	if err != nil {
		return nil, err
	}

	inboundAddress := input.DeviceNumber
	if inboundAddress == "" {
		inboundAddress = client.SenderNumber
	}

	session := &domain.AlertSession{
		SessionID:                 uuid.NewString(),
		ClientID:                  client.ID,
		AlertState:                domain.AlertStateStarted,
		InboundAddress:            inboundAddress,
		Language:                  language,
		ResponderPhoneNumbers:     responders,
		ValidIncidentCategoryKeys: categories.Keys,
		ValidIncidentCategories:   categories.Labels,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	info := domain.AlertInfo{
		SessionID:          session.SessionID,
		Channel:            domain.Channel(client.Channel),
		Recipients:         responders,
		SenderAddress:      inboundAddress,
		Message:            templates[templateInitial],
		ReminderMessage:    templates[templateReminder],
		FallbackMessage:    templates[templateFallback],
		ReminderTimeout:    s.timeout(client.ReminderTimeoutMillis, s.defaults.DefaultReminderTimeoutMillis),
		FallbackTimeout:    s.timeout(client.FallbackTimeoutMillis, s.defaults.DefaultFallbackTimeoutMillis),
		FallbackRecipients: fallbacks,
	}
	if info.Message == "" {
		info.Message = "Alert: a safety device has been triggered. Please reply to this message."
	}

	if err := s.escalator.StartSession(ctx, info); err != nil {
		s.logger.Error("escalation start failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("alert session started",
		zap.String("session_id", session.SessionID),
		zap.String("client_id", client.ID),
		zap.Int("responders", len(responders)))
	return session, nil
}

// GetSession fetches a session for the read API.
func (s *AlertService) GetSession(ctx context.Context, sessionID string) (*domain.AlertSession, error) {
	session, err := s.sessions.GetCurrentSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFound("session", map[string]any{"session_id": sessionID})
	}
	return session, nil
}

// timeout resolves a client timer setting. A negative stored value means
// "unset, use the service default"; zero means the timer is disabled.
func (s *AlertService) timeout(clientMillis, defaultMillis int) time.Duration {
	millis := clientMillis
	if millis < 0 {
		millis = defaultMillis
	}
	if millis <= 0 {
		return 0
	}
	return time.Duration(millis) * time.Millisecond
}
