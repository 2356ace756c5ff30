package dto

import (
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// TriggerAlertRequest payload for the device trigger endpoint.
type TriggerAlertRequest struct {
	ClientID     string `json:"client_id"`
	DeviceNumber string `json:"device_number,omitempty"`
	Language     string `json:"language,omitempty"`
}

// InboundSMSRequest is the provider webhook payload for one inbound reply.
// Providers post either form-encoded or JSON bodies; field names follow the
// Twilio convention.
type InboundSMSRequest struct {
	From string `json:"From" form:"From"`
	To   string `json:"To" form:"To"`
	Body string `json:"Body" form:"Body"`
}

// SessionResponse exposes the persisted session state.
type SessionResponse struct {
	SessionID              string            `json:"session_id"`
	ClientID               string            `json:"client_id"`
	AlertState             domain.AlertState `json:"alert_state"`
	RespondedByPhoneNumber string            `json:"responded_by_phone_number,omitempty"`
	IncidentCategoryKey    string            `json:"incident_category_key,omitempty"`
	IncidentCategory       string            `json:"incident_category,omitempty"`
	FallbackReturnMessage  string            `json:"fallback_return_message,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// SessionEventResponse is one audit-trail entry of a session.
type SessionEventResponse struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionFromDomain maps a session to its API shape.
func SessionFromDomain(session *domain.AlertSession) SessionResponse {
	return SessionResponse{
		SessionID:              session.SessionID,
		ClientID:               session.ClientID,
		AlertState:             session.AlertState,
		RespondedByPhoneNumber: session.RespondedByPhoneNumber,
		IncidentCategoryKey:    session.IncidentCategoryKey,
		IncidentCategory:       session.IncidentCategory,
		FallbackReturnMessage:  session.FallbackReturnMessage,
		CreatedAt:              session.CreatedAt,
		UpdatedAt:              session.UpdatedAt,
	}
}
