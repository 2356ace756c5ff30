package escalation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// NoResponseStatus is recorded for a fallback recipient whose delivery
// failed or produced no outcome.
const NoResponseStatus = "no_response"

// Messenger sends a single message over one delivery channel and returns
// the provider's delivery status for it.
type Messenger interface {
	SendMessage(ctx context.Context, to, from, body string) (string, error)
}

// SessionReader re-reads current session state. Reads must be fresh: timer
// guards depend on observing the latest persisted state, not a snapshot.
type SessionReader interface {
	GetCurrentSession(ctx context.Context, sessionID string) (*domain.AlertSession, error)
}

// SessionCallback is invoked exactly once per logical transition with a
// partial update carrying only the changed fields.
type SessionCallback interface {
	OnSessionChanged(ctx context.Context, update domain.SessionUpdate) (*domain.CallbackResult, error)
}

// Orchestrator owns per-session timer scheduling and fan-out delivery for
// escalation runs. It keeps no cross-session mutable state; every decision
// that matters for correctness re-reads the session through the reader.
type Orchestrator struct {
	messengers map[domain.Channel]Messenger
	sessions   SessionReader
	callback   SessionCallback
	logger     *zap.Logger

	// schedule defaults to time.AfterFunc. Timers are fire-and-forget: there
	// is no cancellation, the state guard in the handler is the only thing
	// that suppresses a stale firing.
	schedule func(d time.Duration, fn func())
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(messengers map[domain.Channel]Messenger, sessions SessionReader, callback SessionCallback, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		messengers: messengers,
		sessions:   sessions,
		callback:   callback,
		logger:     logger,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// StartSession performs the initial fan-out for an escalation run and arms
// the reminder and fallback timers. A timeout of zero or less means "do not
// schedule"; that is a configuration switch, not an error.
func (o *Orchestrator) StartSession(ctx context.Context, info domain.AlertInfo) error {
	messenger, err := o.messengerFor(info.Channel)
	if err != nil {
		return err
	}

	if len(info.Recipients) > 0 && info.SenderAddress != "" {
		outcomes := o.fanOut(ctx, messenger, info.Recipients, info.SenderAddress, info.Message)
		if succeeded(outcomes) == 0 {
			return fmt.Errorf("initial delivery failed for every recipient of session %s", info.SessionID)
		}
		started := domain.AlertStateStarted
		o.notifyChange(ctx, domain.SessionUpdate{
			SessionID:  info.SessionID,
			AlertState: &started,
		})
	}

	if info.ReminderTimeout > 0 {
		o.schedule(info.ReminderTimeout, func() { o.fireReminder(info) })
	}
	if info.FallbackTimeout > 0 {
		o.schedule(info.FallbackTimeout, func() { o.fireFallback(info) })
	}
	return nil
}

// fireReminder runs when the reminder timer expires. Guard: the session must
// still be in STARTED; any later state means a responder already replied and
// the firing is a silent no-op.
func (o *Orchestrator) fireReminder(info domain.AlertInfo) {
	ctx := context.Background()

	session, ok := o.guard(ctx, info.SessionID, domain.AlertStateStarted)
	if !ok {
		return
	}

	messenger, err := o.messengerFor(info.Channel)
	if err != nil {
		o.logger.Error("reminder aborted", zap.String("session_id", info.SessionID), zap.Error(err))
		return
	}

	outcomes := o.fanOut(ctx, messenger, info.Recipients, info.SenderAddress, info.ReminderMessage)
	if succeeded(outcomes) == 0 {
		o.logger.Error("reminder delivery failed for every recipient",
			zap.String("session_id", session.SessionID))
		return
	}

	waiting := domain.AlertStateWaitingForReply
	o.notifyChange(ctx, domain.SessionUpdate{
		SessionID:  info.SessionID,
		AlertState: &waiting,
	})
}

// fireFallback runs when the fallback timer expires. Guard: the session must
// still be in WAITING_FOR_REPLY. Per-recipient outcomes are aggregated in
// input order into the session's fallbackReturnMessage.
func (o *Orchestrator) fireFallback(info domain.AlertInfo) {
	ctx := context.Background()

	session, ok := o.guard(ctx, info.SessionID, domain.AlertStateWaitingForReply)
	if !ok {
		return
	}

	messenger, err := o.messengerFor(info.Channel)
	if err != nil {
		o.logger.Error("fallback aborted", zap.String("session_id", info.SessionID), zap.Error(err))
		return
	}

	outcomes := o.fanOut(ctx, messenger, info.FallbackRecipients, info.SenderAddress, info.FallbackMessage)
	if succeeded(outcomes) == 0 {
		o.logger.Error("fallback delivery failed for every recipient",
			zap.String("session_id", session.SessionID))
		return
	}

	tokens := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.ok && outcome.status != "" {
			tokens[i] = outcome.status
		} else {
			tokens[i] = NoResponseStatus
		}
	}
	report := strings.Join(tokens, ", ")

	o.notifyChange(ctx, domain.SessionUpdate{
		SessionID:             info.SessionID,
		FallbackReturnMessage: &report,
	})
}

// guard re-fetches the session and checks it is still in the wanted state.
// The read must be fresh; reusing the snapshot captured at schedule time
// would defeat the state-guard cancellation pattern.
func (o *Orchestrator) guard(ctx context.Context, sessionID string, want domain.AlertState) (*domain.AlertSession, bool) {
	session, err := o.sessions.GetCurrentSession(ctx, sessionID)
	if err != nil {
		o.logger.Error("session read failed on timer firing",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}
	if session == nil {
		o.logger.Info("session gone on timer firing", zap.String("session_id", sessionID))
		return nil, false
	}
	if session.AlertState != want {
		// The session already progressed; the timer firing is stale.
		o.logger.Debug("timer guard suppressed firing",
			zap.String("session_id", sessionID),
			zap.String("state", string(session.AlertState)),
			zap.String("guard", string(want)))
		return nil, false
	}
	return session, true
}

type deliveryOutcome struct {
	recipient string
	status    string
	ok        bool
}

// fanOut delivers one message to every recipient concurrently and waits for
// all sends before returning. A failed send for one recipient never aborts
// or delays the others; failures are logged and recorded in the outcome.
func (o *Orchestrator) fanOut(ctx context.Context, messenger Messenger, recipients []string, from, body string) []deliveryOutcome {
	outcomes := make([]deliveryOutcome, len(recipients))

	var wg sync.WaitGroup
	for i, recipient := range recipients {
		wg.Add(1)
		go func(i int, recipient string) {
			defer wg.Done()
			status, err := messenger.SendMessage(ctx, recipient, from, body)
			if err != nil {
				o.logger.Warn("delivery failed",
					zap.String("recipient", recipient), zap.Error(err))
				outcomes[i] = deliveryOutcome{recipient: recipient}
				return
			}
			outcomes[i] = deliveryOutcome{recipient: recipient, status: status, ok: true}
		}(i, recipient)
	}
	wg.Wait()

	return outcomes
}

// notifyChange invokes the session-changed callback. Callback failures are
// terminal at the point of detection: escalation is best-effort.
func (o *Orchestrator) notifyChange(ctx context.Context, update domain.SessionUpdate) {
	if _, err := o.callback.OnSessionChanged(ctx, update); err != nil {
		o.logger.Error("session-changed callback failed",
			zap.String("session_id", update.SessionID), zap.Error(err))
	}
}

func (o *Orchestrator) messengerFor(channel domain.Channel) (Messenger, error) {
	if channel == "" {
		channel = domain.ChannelSMS
	}
	messenger, ok := o.messengers[channel]
	if !ok {
		return nil, fmt.Errorf("no messenger configured for channel %q", channel)
	}
	return messenger, nil
}

func succeeded(outcomes []deliveryOutcome) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.ok {
			count++
		}
	}
	return count
}
