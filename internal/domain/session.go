package domain

import "time"

// AlertState enumerates chatbot lifecycle states for an alert session.
type AlertState string

const (
	AlertStateStarted            AlertState = "STARTED"
	AlertStateWaitingForReply    AlertState = "WAITING_FOR_REPLY"
	AlertStateResponding         AlertState = "RESPONDING"
	AlertStateWaitingForCategory AlertState = "WAITING_FOR_CATEGORY"
	AlertStateWaitingForDetails  AlertState = "WAITING_FOR_DETAILS"
	AlertStateCompleted          AlertState = "COMPLETED"
	AlertStateReset              AlertState = "RESET"
	AlertStateNamingStarted      AlertState = "NAMING_STARTED"
	AlertStateNamingCompleted    AlertState = "NAMING_COMPLETED"
)

// Terminal reports whether the state accepts no further transitions.
func (s AlertState) Terminal() bool {
	return s == AlertStateCompleted || s == AlertStateReset
}

// Valid reports whether the value is a known alert state.
func (s AlertState) Valid() bool {
	switch s {
	case AlertStateStarted, AlertStateWaitingForReply, AlertStateResponding,
		AlertStateWaitingForCategory, AlertStateWaitingForDetails,
		AlertStateCompleted, AlertStateReset,
		AlertStateNamingStarted, AlertStateNamingCompleted:
		return true
	}
	return false
}

// AlertSession is the unit of escalation state for one alert occurrence.
// It is owned by the session store; this package only shapes it.
type AlertSession struct {
	SessionID                 string     `json:"session_id"`
	ClientID                  string     `json:"client_id"`
	AlertState                AlertState `json:"alert_state"`
	InboundAddress            string     `json:"inbound_address"`
	Language                  string     `json:"language"`
	ResponderPhoneNumbers     []string   `json:"responder_phone_numbers"`
	RespondedByPhoneNumber    string     `json:"responded_by_phone_number,omitempty"`
	ValidIncidentCategoryKeys []string   `json:"valid_incident_category_keys"`
	ValidIncidentCategories   []string   `json:"valid_incident_categories"`
	IncidentCategoryKey       string     `json:"incident_category_key,omitempty"`
	IncidentCategory          string     `json:"incident_category,omitempty"`
	FallbackReturnMessage     string     `json:"fallback_return_message,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// HasResponder reports whether the number is one of the configured responders.
func (s *AlertSession) HasResponder(phoneNumber string) bool {
	for _, number := range s.ResponderPhoneNumbers {
		if number == phoneNumber {
			return true
		}
	}
	return false
}

// CategoryLabel returns the category label aligned with the given key,
// or the key itself when the parallel sequences do not cover it.
func (s *AlertSession) CategoryLabel(key string) string {
	for i, candidate := range s.ValidIncidentCategoryKeys {
		if candidate == key && i < len(s.ValidIncidentCategories) {
			return s.ValidIncidentCategories[i]
		}
	}
	return key
}
