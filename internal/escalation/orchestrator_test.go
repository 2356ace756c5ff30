package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/domain"
)

type sentMessage struct {
	To   string
	Body string
}

// fakeMessenger records sends and answers with a configured status per
// recipient; recipients in failFor get an error instead.
type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	statuses map[string]string
	failFor  map[string]bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{statuses: map[string]string{}, failFor: map[string]bool{}}
}

func (m *fakeMessenger) SendMessage(_ context.Context, to, _ string, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return "", errors.New("provider unreachable")
	}
	m.sent = append(m.sent, sentMessage{To: to, Body: body})
	status := m.statuses[to]
	if status == "" {
		status = "sent"
	}
	return status, nil
}

func (m *fakeMessenger) deliveries() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// fakeStore serves fresh session reads; the state can be swapped between
// reads to simulate progress happening before a timer expires.
type fakeStore struct {
	mu      sync.Mutex
	session *domain.AlertSession
}

func (s *fakeStore) GetCurrentSession(_ context.Context, _ string) (*domain.AlertSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *fakeStore) setState(state domain.AlertState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AlertState = state
}

// fakeCallback streams updates to the test and mirrors state changes into
// the store, the way the host's persistence layer would.
type fakeCallback struct {
	store   *fakeStore
	updates chan domain.SessionUpdate
}

func newFakeCallback(store *fakeStore) *fakeCallback {
	return &fakeCallback{store: store, updates: make(chan domain.SessionUpdate, 16)}
}

func (c *fakeCallback) OnSessionChanged(_ context.Context, update domain.SessionUpdate) (*domain.CallbackResult, error) {
	if update.AlertState != nil && c.store != nil {
		c.store.setState(*update.AlertState)
	}
	c.updates <- update
	return nil, nil
}

func waitUpdate(t *testing.T, c *fakeCallback, timeout time.Duration) domain.SessionUpdate {
	t.Helper()
	select {
	case update := <-c.updates:
		return update
	case <-time.After(timeout):
		t.Fatalf("no session-changed callback within %v", timeout)
		return domain.SessionUpdate{}
	}
}

func assertNoUpdate(t *testing.T, c *fakeCallback, wait time.Duration) {
	t.Helper()
	select {
	case update := <-c.updates:
		t.Fatalf("unexpected callback: %+v", update)
	case <-time.After(wait):
	}
}

func newTestOrchestrator(messenger Messenger, store *fakeStore, callback SessionCallback) *Orchestrator {
	return NewOrchestrator(
		map[domain.Channel]Messenger{domain.ChannelSMS: messenger},
		store,
		callback,
		zap.NewNop(),
	)
}

func startedSession(id string) *domain.AlertSession {
	return &domain.AlertSession{SessionID: id, AlertState: domain.AlertStateStarted}
}

func TestStartSessionDeliversToAllRecipientsAndReportsStarted(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:     "s1",
		Recipients:    []string{"+111", "+222", "+333"},
		SenderAddress: "+900",
		Message:       "device triggered",
	})
	require.NoError(t, err)

	update := waitUpdate(t, callback, time.Second)
	require.NotNil(t, update.AlertState)
	assert.Equal(t, domain.AlertStateStarted, *update.AlertState)
	assert.Len(t, messenger.deliveries(), 3)
}

func TestStartSessionSurvivesPartialDeliveryFailure(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	messenger.failFor["+222"] = true
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:     "s1",
		Recipients:    []string{"+111", "+222"},
		SenderAddress: "+900",
		Message:       "device triggered",
	})
	require.NoError(t, err)

	update := waitUpdate(t, callback, time.Second)
	require.NotNil(t, update.AlertState)
	assert.Equal(t, domain.AlertStateStarted, *update.AlertState)
	assert.Len(t, messenger.deliveries(), 1)
}

func TestStartSessionTotalFailureReportsErrorWithoutCallback(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	messenger.failFor["+111"] = true
	messenger.failFor["+222"] = true
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:     "s1",
		Recipients:    []string{"+111", "+222"},
		SenderAddress: "+900",
		Message:       "device triggered",
	})
	require.Error(t, err)
	assertNoUpdate(t, callback, 50*time.Millisecond)
}

func TestStartSessionSkipsTimersWhenTimeoutsUnset(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	scheduled := 0
	orch.schedule = func(time.Duration, func()) { scheduled++ }

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:       "s1",
		Recipients:      []string{"+111"},
		SenderAddress:   "+900",
		Message:         "device triggered",
		ReminderTimeout: 0,
		FallbackTimeout: -time.Second,
	})
	require.NoError(t, err)
	assert.Zero(t, scheduled)
}

func TestReminderFiresAndAdvancesToWaitingForReply(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:       "s1",
		Recipients:      []string{"+111", "+222"},
		SenderAddress:   "+900",
		Message:         "device triggered",
		ReminderMessage: "please respond",
		ReminderTimeout: time.Millisecond,
	})
	require.NoError(t, err)

	started := waitUpdate(t, callback, time.Second)
	require.NotNil(t, started.AlertState)
	require.Equal(t, domain.AlertStateStarted, *started.AlertState)

	reminded := waitUpdate(t, callback, time.Second)
	require.NotNil(t, reminded.AlertState)
	assert.Equal(t, domain.AlertStateWaitingForReply, *reminded.AlertState)

	deliveries := messenger.deliveries()
	require.Len(t, deliveries, 4)
	assert.Equal(t, "please respond", deliveries[2].Body)
	assert.Equal(t, "please respond", deliveries[3].Body)
}

func TestReminderGuardSuppressesStaleFiring(t *testing.T) {
	t.Parallel()

	// The guard must hold for every state other than STARTED.
	for _, state := range []domain.AlertState{
		domain.AlertStateWaitingForReply,
		domain.AlertStateResponding,
		domain.AlertStateWaitingForCategory,
		domain.AlertStateWaitingForDetails,
		domain.AlertStateCompleted,
		domain.AlertStateReset,
	} {
		messenger := newFakeMessenger()
		store := &fakeStore{session: &domain.AlertSession{SessionID: "s1", AlertState: state}}
		callback := newFakeCallback(store)
		orch := newTestOrchestrator(messenger, store, callback)

		orch.fireReminder(domain.AlertInfo{
			SessionID:       "s1",
			Recipients:      []string{"+111"},
			SenderAddress:   "+900",
			ReminderMessage: "please respond",
		})

		assert.Empty(t, messenger.deliveries(), "state %s", state)
		assertNoUpdate(t, callback, 10*time.Millisecond)
	}
}

func TestReminderGuardReadsFreshState(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:       "s1",
		Recipients:      []string{"+111"},
		SenderAddress:   "+900",
		Message:         "device triggered",
		ReminderMessage: "please respond",
		ReminderTimeout: 30 * time.Millisecond,
	})
	require.NoError(t, err)
	waitUpdate(t, callback, time.Second) // STARTED

	// A reply arrives before the reminder timer expires.
	store.setState(domain.AlertStateWaitingForCategory)

	assertNoUpdate(t, callback, 100*time.Millisecond)
	assert.Len(t, messenger.deliveries(), 1, "reminder must not be sent after progress")
}

func TestFallbackAggregatesOutcomesInRecipientOrder(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	messenger.statuses["+111"] = "queued"
	messenger.failFor["+222"] = true
	messenger.statuses["+333"] = "delivered"
	store := &fakeStore{session: &domain.AlertSession{SessionID: "s1", AlertState: domain.AlertStateWaitingForReply}}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	orch.fireFallback(domain.AlertInfo{
		SessionID:          "s1",
		SenderAddress:      "+900",
		FallbackMessage:    "nobody answered",
		FallbackRecipients: []string{"+111", "+222", "+333"},
	})

	update := waitUpdate(t, callback, time.Second)
	require.NotNil(t, update.FallbackReturnMessage)
	assert.Equal(t, "queued, no_response, delivered", *update.FallbackReturnMessage)
	// The report is an explicit partial update: nothing but the session id
	// and the aggregate may be set.
	assert.Nil(t, update.AlertState)
	assert.Nil(t, update.RespondedByPhoneNumber)
	assert.Equal(t, "s1", update.SessionID)
}

func TestFallbackTotalFailureSkipsCallback(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	messenger.failFor["+111"] = true
	store := &fakeStore{session: &domain.AlertSession{SessionID: "s1", AlertState: domain.AlertStateWaitingForReply}}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	orch.fireFallback(domain.AlertInfo{
		SessionID:          "s1",
		SenderAddress:      "+900",
		FallbackMessage:    "nobody answered",
		FallbackRecipients: []string{"+111"},
	})

	assertNoUpdate(t, callback, 50*time.Millisecond)
}

func TestFallbackGuardSuppressesStaleFiring(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	store := &fakeStore{session: &domain.AlertSession{SessionID: "s1", AlertState: domain.AlertStateCompleted}}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	orch.fireFallback(domain.AlertInfo{
		SessionID:          "s1",
		SenderAddress:      "+900",
		FallbackMessage:    "nobody answered",
		FallbackRecipients: []string{"+111"},
	})

	assert.Empty(t, messenger.deliveries())
	assertNoUpdate(t, callback, 10*time.Millisecond)
}

func TestEscalationSequenceWithoutAnyReply(t *testing.T) {
	t.Parallel()

	messenger := newFakeMessenger()
	messenger.statuses["+555"] = "delivered"
	store := &fakeStore{session: startedSession("s1")}
	callback := newFakeCallback(store)
	orch := newTestOrchestrator(messenger, store, callback)

	err := orch.StartSession(context.Background(), domain.AlertInfo{
		SessionID:          "s1",
		Recipients:         []string{"+111"},
		SenderAddress:      "+900",
		Message:            "device triggered",
		ReminderMessage:    "please respond",
		FallbackMessage:    "nobody answered",
		ReminderTimeout:    time.Millisecond,
		FallbackTimeout:    60 * time.Millisecond,
		FallbackRecipients: []string{"+555"},
	})
	require.NoError(t, err)

	started := waitUpdate(t, callback, time.Second)
	require.NotNil(t, started.AlertState)
	assert.Equal(t, domain.AlertStateStarted, *started.AlertState)

	reminded := waitUpdate(t, callback, time.Second)
	require.NotNil(t, reminded.AlertState)
	assert.Equal(t, domain.AlertStateWaitingForReply, *reminded.AlertState)

	fallback := waitUpdate(t, callback, time.Second)
	require.NotNil(t, fallback.FallbackReturnMessage)
	assert.Equal(t, "delivered", *fallback.FallbackReturnMessage)
}
