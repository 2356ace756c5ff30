package domain

// SessionUpdate is an explicit partial-update object: only the fields that
// changed in one logical transition are non-nil. The session store merges it
// into the stored session; consumers must not treat nil as "cleared".
type SessionUpdate struct {
	SessionID              string
	AlertState             *AlertState
	IncidentCategoryKey    *string
	IncidentCategory       *string
	RespondedByPhoneNumber *string
	FallbackReturnMessage  *string
}

// ReplacementMessages lets the session-changed callback override the state
// machine's formatted audience messages before delivery, e.g. to inject a
// freshly generated incident reference the pure transition cannot compute.
type ReplacementMessages struct {
	ToResponder       string
	ToOtherResponders string
}

// CallbackResult is what a session-changed callback may hand back to the
// caller of the transition.
type CallbackResult struct {
	// RespondedByPhoneNumber is the attribution recorded by the store; when
	// non-empty it overrides the caller's view of who the responder is.
	RespondedByPhoneNumber string
	Replacement            *ReplacementMessages
}
