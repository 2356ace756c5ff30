package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/escalation-service/internal/domain"
)

func testFormatter(resetPhrase string) *TemplateFormatter {
	return NewTemplateFormatter(map[string]TemplateSet{
		"en": {ResetPhrase: resetPhrase},
	})
}

func TestTransitionInitialStates(t *testing.T) {
	t.Parallel()

	keys := []string{"1", "2", "3", "4"}
	labels := []string{"Fire", "Medical", "Intrusion", "Other"}

	tests := []struct {
		name    string
		current domain.AlertState
		message string
		want    domain.AlertState
	}{
		{"started advances on any reply", domain.AlertStateStarted, "hello", domain.AlertStateWaitingForCategory},
		{"waiting for reply advances on any reply", domain.AlertStateWaitingForReply, "ok", domain.AlertStateWaitingForCategory},
		{"started resets on reset phrase", domain.AlertStateStarted, "cancel", domain.AlertStateReset},
		{"reset phrase is case insensitive", domain.AlertStateWaitingForReply, "CANCEL", domain.AlertStateReset},
		{"reset phrase tolerates whitespace", domain.AlertStateStarted, "  cancel  ", domain.AlertStateReset},
		{"non-reset text still advances", domain.AlertStateWaitingForReply, "cancelation", domain.AlertStateWaitingForCategory},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := Transition(tt.current, tt.message, keys, labels, "en", testFormatter("cancel"))
			assert.Equal(t, tt.want, result.NextAlertState)
			assert.Empty(t, result.IncidentCategoryKey)
		})
	}
}

func TestTransitionResetDisabledWithoutPhrase(t *testing.T) {
	t.Parallel()

	// A client without a reset keyword never allows RESET; the comparison is
	// skipped entirely, so the literal phrase is just another reply.
	result := Transition(domain.AlertStateStarted, "cancel", nil, nil, "en", testFormatter(""))
	require.Equal(t, domain.AlertStateWaitingForCategory, result.NextAlertState)
}

func TestTransitionCategoryMatching(t *testing.T) {
	t.Parallel()

	keys := []string{"1", "2", "3", "4"}
	labels := []string{"Fire", "Medical", "Intrusion", "Other"}

	tests := []struct {
		name      string
		message   string
		wantState domain.AlertState
		wantKey   string
	}{
		{"exact key completes", "3", domain.AlertStateCompleted, "3"},
		{"surrounding whitespace is trimmed", "   3   ", domain.AlertStateCompleted, "3"},
		{"zero-padded key does not match", "03", domain.AlertStateWaitingForCategory, ""},
		{"below range stays", "0", domain.AlertStateWaitingForCategory, ""},
		{"above range stays", "5", domain.AlertStateWaitingForCategory, ""},
		{"garbage stays", "A23", domain.AlertStateWaitingForCategory, ""},
		{"empty reply stays", "", domain.AlertStateWaitingForCategory, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := Transition(domain.AlertStateWaitingForCategory, tt.message, keys, labels, "en", testFormatter("cancel"))
			assert.Equal(t, tt.wantState, result.NextAlertState)
			assert.Equal(t, tt.wantKey, result.IncidentCategoryKey)
		})
	}
}

func TestTransitionCategoryLabelFlowsIntoBroadcast(t *testing.T) {
	t.Parallel()

	keys := []string{"1", "2"}
	labels := []string{"Fire", "Medical"}

	result := Transition(domain.AlertStateWaitingForCategory, "2", keys, labels, "en", testFormatter(""))
	require.Equal(t, domain.AlertStateCompleted, result.NextAlertState)
	require.Equal(t, "2", result.IncidentCategoryKey)
	assert.Contains(t, result.MessageToOtherResponderPhoneNumbers, "Medical")
}

func TestTransitionTerminalStatesAreIdempotent(t *testing.T) {
	t.Parallel()

	keys := []string{"1", "2", "3"}
	messages := []string{"1", "cancel", "anything", "", "   "}

	for _, state := range []domain.AlertState{domain.AlertStateCompleted, domain.AlertStateReset} {
		for _, message := range messages {
			result := Transition(state, message, keys, keys, "en", testFormatter("cancel"))
			assert.Equal(t, state, result.NextAlertState, "state %s, message %q", state, message)
			assert.Empty(t, result.IncidentCategoryKey)
		}
	}
}

func TestTransitionUnhandledStatesStay(t *testing.T) {
	t.Parallel()

	for _, state := range []domain.AlertState{
		domain.AlertStateResponding,
		domain.AlertStateWaitingForDetails,
		domain.AlertStateNamingStarted,
		domain.AlertStateNamingCompleted,
	} {
		result := Transition(state, "3", []string{"3"}, []string{"Intrusion"}, "en", testFormatter("cancel"))
		assert.Equal(t, state, result.NextAlertState)
		assert.Empty(t, result.IncidentCategoryKey)
	}
}

func TestTransitionAlwaysComputesBothMessages(t *testing.T) {
	t.Parallel()

	keys := []string{"1", "2"}
	labels := []string{"Fire", "Medical"}

	// Even a no-op transition must yield both audience messages so the
	// caller can tell the responder to try again.
	result := Transition(domain.AlertStateWaitingForCategory, "not-a-key", keys, labels, "en", testFormatter("cancel"))
	assert.NotEmpty(t, result.MessageToRespondedByPhoneNumber)
	assert.NotEmpty(t, result.MessageToOtherResponderPhoneNumbers)
}
