package inbound

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/chatbot"
	"github.com/spec-kit/escalation-service/internal/domain"
)

// ErrUnknownSender is returned when a reply arrives from an address that is
// not one of the session's configured responders. The transport layer maps
// it to a rejection; the router never attributes sessions to unverified
// addresses.
var ErrUnknownSender = errors.New("sender is not a configured responder")

// Message is one inbound reply event from the delivery provider.
type Message struct {
	From string
	To   string
	Body string
}

// SessionResolver resolves sessions by the inbound (device) address. The
// device address space is distinct from responder addresses.
type SessionResolver interface {
	GetSessionByInboundAddress(ctx context.Context, to string) (*domain.AlertSession, error)
}

// Messenger sends a single reply message.
type Messenger interface {
	SendMessage(ctx context.Context, to, from, body string) (string, error)
}

// SessionCallback is invoked once per logical transition; its result may
// override attribution and replace the formatted audience messages.
type SessionCallback interface {
	OnSessionChanged(ctx context.Context, update domain.SessionUpdate) (*domain.CallbackResult, error)
}

// Router maps inbound replies to sessions, attributes them to a responder,
// runs the state machine and delivers the two audience messages.
type Router struct {
	sessions  SessionResolver
	messenger Messenger
	callback  SessionCallback
	formatter chatbot.Formatter
	logger    *zap.Logger
}

// NewRouter constructs the router.
func NewRouter(sessions SessionResolver, messenger Messenger, callback SessionCallback, formatter chatbot.Formatter, logger *zap.Logger) *Router {
	return &Router{
		sessions:  sessions,
		messenger: messenger,
		callback:  callback,
		formatter: formatter,
		logger:    logger,
	}
}

// HandleReply processes one inbound reply. An unknown session is a silent
// no-op (inbound events can arrive for already-closed sessions); a reply
// from an unconfigured address is rejected with ErrUnknownSender.
func (r *Router) HandleReply(ctx context.Context, msg Message) error {
	session, err := r.sessions.GetSessionByInboundAddress(ctx, msg.To)
	if err != nil {
		return err
	}
	if session == nil {
		r.logger.Info("inbound reply for unknown session discarded",
			zap.String("to", msg.To))
		return nil
	}
	if !session.HasResponder(msg.From) {
		return ErrUnknownSender
	}

	// First reply wins the attribution. The check is read-then-write: two
	// racing first replies can both pass it; the store's merge keeps the
	// first write. Known race, kept as is.
	responder := session.RespondedByPhoneNumber
	attributed := false
	if responder == "" {
		responder = msg.From
		attributed = true
	}

	result := chatbot.Transition(
		session.AlertState,
		msg.Body,
		session.ValidIncidentCategoryKeys,
		session.ValidIncidentCategories,
		session.Language,
		r.formatter,
	)

	update := domain.SessionUpdate{
		SessionID:  session.SessionID,
		AlertState: &result.NextAlertState,
	}
	if result.IncidentCategoryKey != "" {
		key := result.IncidentCategoryKey
		label := session.CategoryLabel(key)
		update.IncidentCategoryKey = &key
		update.IncidentCategory = &label
	}
	if attributed {
		update.RespondedByPhoneNumber = &responder
	}

	toResponder := result.MessageToRespondedByPhoneNumber
	toOthers := result.MessageToOtherResponderPhoneNumbers

	callbackResult, err := r.callback.OnSessionChanged(ctx, update)
	if err != nil {
		// Best effort: the reply conversation continues even if persisting
		// the transition failed.
		r.logger.Error("session-changed callback failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
	}
	if callbackResult != nil {
		if callbackResult.RespondedByPhoneNumber != "" {
			responder = callbackResult.RespondedByPhoneNumber
		}
		if callbackResult.Replacement != nil {
			toResponder = callbackResult.Replacement.ToResponder
			toOthers = callbackResult.Replacement.ToOtherResponders
		}
	}

	r.deliver(ctx, session, responder, toResponder, toOthers)
	return nil
}

// deliver routes the responder message to the attributed responder and the
// broadcast to every other configured responder. When the reply came from a
// non-attributed responder, that sender is part of the broadcast audience
// and the responder message is withheld from them.
func (r *Router) deliver(ctx context.Context, session *domain.AlertSession, responder, toResponder, toOthers string) {
	from := session.InboundAddress

	if toResponder != "" {
		if _, err := r.messenger.SendMessage(ctx, responder, from, toResponder); err != nil {
			r.logger.Warn("reply to responder failed",
				zap.String("session_id", session.SessionID),
				zap.String("recipient", responder), zap.Error(err))
		}
	}

	if toOthers == "" {
		return
	}
	var wg sync.WaitGroup
	for _, number := range session.ResponderPhoneNumbers {
		if number == responder {
			continue
		}
		wg.Add(1)
		go func(number string) {
			defer wg.Done()
			if _, err := r.messenger.SendMessage(ctx, number, from, toOthers); err != nil {
				r.logger.Warn("broadcast to responder failed",
					zap.String("session_id", session.SessionID),
					zap.String("recipient", number), zap.Error(err))
			}
		}(number)
	}
	wg.Wait()
}
