package chatbot

import (
	"strings"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// TransitionResult is the pure output of one state-machine step. It carries
// no ownership: values are computed, returned and discarded per call.
type TransitionResult struct {
	NextAlertState                      domain.AlertState
	IncidentCategoryKey                 string
	MessageToRespondedByPhoneNumber     string
	MessageToOtherResponderPhoneNumbers string
}

// Formatter supplies the per-language texts the transition needs. Formatting
// is injected so the transition itself stays pure and host-configurable.
type Formatter interface {
	// ResetPhrase returns the reset keyword for the language, or "" when the
	// client has no reset keyword configured. An empty phrase disables the
	// RESET transition entirely.
	ResetPhrase(language string) string
	// MessageToResponder formats the reply sent to the responder after
	// arriving in state, typically prompting with the valid categories.
	MessageToResponder(state domain.AlertState, language string, validCategories []string) string
	// MessageToOtherResponders formats the broadcast sent to the remaining
	// configured responders after arriving in state.
	MessageToOtherResponders(state domain.AlertState, language string, incidentCategory string) string
}

// Transition maps (current state, inbound message, valid category set) to
// the next state, the extracted category key (if any) and the two
// audience-specific reply messages. It performs no I/O and keeps no state.
//
// validCategoryKeys and validCategories are index-aligned parallel
// sequences. Category matching compares the trimmed input against the keys
// verbatim: no case folding, no numeric coercion, so "3" matches key "3"
// while "03" does not.
func Transition(current domain.AlertState, messageText string, validCategoryKeys, validCategories []string, language string, f Formatter) TransitionResult {
	trimmed := strings.TrimSpace(messageText)

	next := current
	categoryKey := ""
	category := ""

	switch current {
	case domain.AlertStateStarted, domain.AlertStateWaitingForReply:
		if phrase := f.ResetPhrase(language); phrase != "" && strings.EqualFold(trimmed, phrase) {
			next = domain.AlertStateReset
		} else {
			next = domain.AlertStateWaitingForCategory
		}
	case domain.AlertStateWaitingForCategory:
		for i, key := range validCategoryKeys {
			if key != trimmed {
				continue
			}
			next = domain.AlertStateCompleted
			categoryKey = key
			if i < len(validCategories) {
				category = validCategories[i]
			}
			break
		}
	}

	// Both messages are always computed, even on a no-op transition: the
	// caller uses them to tell the responder "invalid category, try again"
	// while informing other responders that nothing changed.
	return TransitionResult{
		NextAlertState:                      next,
		IncidentCategoryKey:                 categoryKey,
		MessageToRespondedByPhoneNumber:     f.MessageToResponder(next, language, validCategories),
		MessageToOtherResponderPhoneNumbers: f.MessageToOtherResponders(next, language, category),
	}
}
