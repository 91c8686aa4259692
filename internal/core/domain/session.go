package domain

// SessionState is the tri-state the UI renders from.
type SessionState int

const (
	StateLoading SessionState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is a point-in-time copy of the session store.
type Session struct {
	State     SessionState `json:"state"`
	Principal *Principal   `json:"principal,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Authorizer returns the predicate set for this snapshot.
func (s Session) Authorizer() Authorizer {
	return NewAuthorizer(s.Principal)
}

// SessionEventType says what changed.
type SessionEventType string

const (
	EventRestored      SessionEventType = "restored"
	EventRestoreFailed SessionEventType = "restore_failed"
	EventLoggedIn      SessionEventType = "logged_in"
	EventRegistered    SessionEventType = "registered"
	EventLoggedOut     SessionEventType = "logged_out"
	EventExpired       SessionEventType = "expired"
	EventUpdated       SessionEventType = "updated"
)

// SessionEvent is delivered to subscribers after every mutation.
type SessionEvent struct {
	Type      SessionEventType
	State     SessionState
	Principal *Principal
}
