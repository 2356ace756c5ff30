package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAlertStarted       EventType = "alert_started"
	EventReminderSent       EventType = "reminder_sent"
	EventFallbackDispatched EventType = "fallback_dispatched"
	EventCategoryResolved   EventType = "category_resolved"
	EventSessionReset       EventType = "session_reset"
)

// AllEventTypes lists every event the service publishes, for subscribers
// that want the full stream.
var AllEventTypes = []EventType{
	EventAlertStarted,
	EventReminderSent,
	EventFallbackDispatched,
	EventCategoryResolved,
	EventSessionReset,
}

// Event represents a domain event emitted around session transitions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	ClientID  string      `json:"client_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AlertStartedPayload payload.
type AlertStartedPayload struct {
	Recipients []string `json:"recipients"`
	Channel    string   `json:"channel"`
}

// CategoryResolvedPayload payload.
type CategoryResolvedPayload struct {
	CategoryKey string `json:"category_key"`
	Category    string `json:"category"`
	ResolvedBy  string `json:"resolved_by"`
}

// FallbackDispatchedPayload payload.
type FallbackDispatchedPayload struct {
	Report string `json:"report"`
}
