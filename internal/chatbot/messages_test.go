package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/escalation-service/internal/domain"
)

func TestTemplateFormatterRendersConfiguredTemplates(t *testing.T) {
	t.Parallel()

	tf := NewTemplateFormatter(map[string]TemplateSet{
		"de": {
			ResetPhrase: "abbrechen",
			Prompts: map[domain.AlertState]string{
				domain.AlertStateWaitingForCategory: "Kategorie? {categories}",
			},
			Broadcasts: map[domain.AlertState]string{
				domain.AlertStateCompleted: "Vorfall: {category}",
			},
		},
	})

	assert.Equal(t, "abbrechen", tf.ResetPhrase("de"))
	assert.Equal(t, "Kategorie? Feuer, Medizin",
		tf.MessageToResponder(domain.AlertStateWaitingForCategory, "de", []string{"Feuer", "Medizin"}))
	assert.Equal(t, "Vorfall: Feuer",
		tf.MessageToOtherResponders(domain.AlertStateCompleted, "de", "Feuer"))
}

func TestTemplateFormatterFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	tf := NewTemplateFormatter(nil)

	assert.Empty(t, tf.ResetPhrase("en"))
	assert.Contains(t, tf.MessageToResponder(domain.AlertStateWaitingForCategory, "en", []string{"Fire"}), "Fire")
	assert.Contains(t, tf.MessageToOtherResponders(domain.AlertStateCompleted, "en", "Fire"), "Fire")
}
