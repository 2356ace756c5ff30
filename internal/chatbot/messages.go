package chatbot

import (
	"strings"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// TemplateSet holds the message texts for one language. Prompts address the
// responder, broadcasts address the remaining configured responders. An
// empty ResetPhrase means the client has no reset keyword for that language.
type TemplateSet struct {
	ResetPhrase string
	Prompts     map[domain.AlertState]string
	Broadcasts  map[domain.AlertState]string
}

// TemplateFormatter renders audience messages from per-language templates.
// Templates may reference {categories} (the numbered category list) and
// {category} (the resolved category label).
type TemplateFormatter struct {
	byLanguage map[string]TemplateSet
}

// NewTemplateFormatter builds a formatter over the given language sets.
func NewTemplateFormatter(byLanguage map[string]TemplateSet) *TemplateFormatter {
	return &TemplateFormatter{byLanguage: byLanguage}
}

// ResetPhrase returns the reset keyword for the language, or "".
func (tf *TemplateFormatter) ResetPhrase(language string) string {
	return tf.byLanguage[language].ResetPhrase
}

// MessageToResponder renders the reply addressed to the responder.
func (tf *TemplateFormatter) MessageToResponder(state domain.AlertState, language string, validCategories []string) string {
	tpl := tf.byLanguage[language].Prompts[state]
	if tpl == "" {
		tpl = defaultPrompts[state]
	}
	return strings.ReplaceAll(tpl, "{categories}", numberedList(validCategories))
}

// MessageToOtherResponders renders the broadcast for the remaining responders.
func (tf *TemplateFormatter) MessageToOtherResponders(state domain.AlertState, language string, incidentCategory string) string {
	tpl := tf.byLanguage[language].Broadcasts[state]
	if tpl == "" {
		tpl = defaultBroadcasts[state]
	}
	return strings.ReplaceAll(tpl, "{category}", incidentCategory)
}

func numberedList(categories []string) string {
	var b strings.Builder
	for i, category := range categories {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(category)
	}
	return b.String()
}

var defaultPrompts = map[domain.AlertState]string{
	domain.AlertStateWaitingForCategory: "Thanks for responding. What is the incident category? Reply with one of: {categories}",
	domain.AlertStateCompleted:          "Category received, thank you. The incident is being handled.",
	domain.AlertStateReset:              "This alert has been reset.",
}

var defaultBroadcasts = map[domain.AlertState]string{
	domain.AlertStateWaitingForCategory: "Another responder has replied and is handling this alert.",
	domain.AlertStateCompleted:          "This incident was categorized as: {category}",
	domain.AlertStateReset:              "This alert has been reset by a responder.",
}
