package core

// SessionState tracks where the client is in the connection lifecycle.
type SessionState int

const (
	// StateDisconnected means no transport and no pending reconnect.
	StateDisconnected SessionState = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateAuthenticating means the transport is up and login was sent.
	StateAuthenticating
	// StateOnline means login succeeded.
	StateOnline
	// StateReconnecting means a reconnect timer is armed after a
	// transport failure.
	StateReconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateOnline:
		return "online"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Session is the per-client authentication state. There is at most one
// per client instance.
type Session struct {
	State     SessionState
	Username  string
	LastError string
}
