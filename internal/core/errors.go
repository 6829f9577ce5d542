package core

import "errors"

// Error codes surfaced to the render sink.
const (
	ErrCodeNotConnected = "not_connected"
	ErrCodeLoginFailed  = "login_failed"
	ErrCodeRoomExists   = "room_exists"
	ErrCodeEmptyBalance = "empty_balance"
	ErrCodeCreateFailed = "create_failed"
)

var (
	// ErrNotConnected rejects a send attempted without a live transport.
	ErrNotConnected = errors.New("not connected to server")
	// ErrConnectionLost rejects pending requests when the transport
	// drops before their reply arrives.
	ErrConnectionLost = errors.New("connection lost")
	// ErrRequestTimeout cancels a pending request whose reply never
	// arrived within the configured bound.
	ErrRequestTimeout = errors.New("request timed out")
)

// ClientError pairs a stable code with a human-readable message. The
// render sink decides final formatting.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}
