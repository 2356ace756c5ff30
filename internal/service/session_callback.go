package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/events"
)

// sessionWriter applies partial updates to the persisted session.
type sessionWriter interface {
	ApplyUpdate(ctx context.Context, update domain.SessionUpdate) (*domain.AlertSession, error)
}

// templateReader loads per-client message templates.
type templateReader interface {
	GetTemplates(ctx context.Context, clientID, language string) (map[string]string, error)
}

// SessionCallbackService is the host side of the session-changed contract:
// it persists each transition, publishes the matching domain event, and may
// hand back replacement messages enriched with content the pure state
// machine cannot compute, such as a freshly generated incident reference.
type SessionCallbackService struct {
	store      sessionWriter
	templates  templateReader
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewSessionCallbackService constructs the service.
func NewSessionCallbackService(store sessionWriter, templates templateReader, dispatcher events.Dispatcher, logger *zap.Logger) *SessionCallbackService {
	return &SessionCallbackService{
		store:      store,
		templates:  templates,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// OnSessionChanged persists the update and reports the recorded attribution
// back to the caller. Invoked exactly once per logical transition.
func (s *SessionCallbackService) OnSessionChanged(ctx context.Context, update domain.SessionUpdate) (*domain.CallbackResult, error) {
	session, err := s.store.ApplyUpdate(ctx, update)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session, update)

	result := &domain.CallbackResult{
		RespondedByPhoneNumber: session.RespondedByPhoneNumber,
	}
	if update.IncidentCategoryKey != nil {
		result.Replacement = s.confirmationMessages(ctx, session)
	}
	return result, nil
}

// confirmationMessages builds the replacement pair from the client's
// confirmation templates, injecting a fresh incident reference. Returns nil
// when the client has no confirmation templates; the state machine's own
// messages are then used unchanged.
func (s *SessionCallbackService) confirmationMessages(ctx context.Context, session *domain.AlertSession) *domain.ReplacementMessages {
	templates, err := s.templates.GetTemplates(ctx, session.ClientID, session.Language)
	if err != nil {
		s.logger.Warn("confirmation templates unavailable",
			zap.String("client_id", session.ClientID), zap.Error(err))
		return nil
	}

	toResponder := templates["confirmation_responder"]
	toOthers := templates["confirmation_broadcast"]
	if toResponder == "" && toOthers == "" {
		return nil
	}

	incidentNumber := "INC-" + strings.ToUpper(uuid.NewString()[:8])
	expand := func(tpl string) string {
		tpl = strings.ReplaceAll(tpl, "{incident_number}", incidentNumber)
		return strings.ReplaceAll(tpl, "{category}", session.IncidentCategory)
	}
	return &domain.ReplacementMessages{
		ToResponder:       expand(toResponder),
		ToOtherResponders: expand(toOthers),
	}
}

func (s *SessionCallbackService) publish(ctx context.Context, session *domain.AlertSession, update domain.SessionUpdate) {
	eventType, payload := classify(session, update)
	if eventType == "" {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: session.SessionID,
		ClientID:  session.ClientID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func classify(session *domain.AlertSession, update domain.SessionUpdate) (events.EventType, interface{}) {
	switch {
	case update.FallbackReturnMessage != nil:
		return events.EventFallbackDispatched, events.FallbackDispatchedPayload{
			Report: *update.FallbackReturnMessage,
		}
	case update.IncidentCategoryKey != nil:
		return events.EventCategoryResolved, events.CategoryResolvedPayload{
			CategoryKey: *update.IncidentCategoryKey,
			Category:    session.IncidentCategory,
			ResolvedBy:  session.RespondedByPhoneNumber,
		}
	case update.AlertState != nil && *update.AlertState == domain.AlertStateReset:
		return events.EventSessionReset, nil
	case update.AlertState != nil && *update.AlertState == domain.AlertStateWaitingForReply:
		return events.EventReminderSent, nil
	case update.AlertState != nil && *update.AlertState == domain.AlertStateStarted:
		return events.EventAlertStarted, events.AlertStartedPayload{
			Recipients: session.ResponderPhoneNumbers,
		}
	}
	return "", nil
}
