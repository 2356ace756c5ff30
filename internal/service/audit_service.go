package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/repository"
)

// AuditService records every published session event as an audit row.
type AuditService struct {
	audits     repository.AuditRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(audits repository.AuditRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		audits:     audits,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the full event stream.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handleEvent)
	}
}

// EventsForSession returns the recorded audit trail of one session in
// chronological order.
func (a *AuditService) EventsForSession(ctx context.Context, sessionID string) ([]repository.AuditEntry, error) {
	return a.audits.ListBySession(ctx, sessionID)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("session event",
		zap.String("type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.String("client_id", event.ClientID))

	if a.audits == nil {
		return nil
	}

	detail := ""
	if event.Payload != nil {
		if raw, err := json.Marshal(event.Payload); err == nil {
			detail = string(raw)
		}
	}
	entry := &repository.AuditEntry{
		SessionID: event.SessionID,
		ClientID:  event.ClientID,
		EventType: string(event.Type),
		Detail:    detail,
	}
	if err := a.audits.Insert(ctx, entry); err != nil {
		a.logger.Warn("audit write failed",
			zap.String("session_id", event.SessionID), zap.Error(err))
	}
	return nil
}
