package core

import "github.com/vovakirdan/chatp-client/internal/proto"

// Outcome is the terminal state of a pending request.
type Outcome int

const (
	// OutcomeResolved means a matching inbound frame arrived.
	OutcomeResolved Outcome = iota
	// OutcomeRejected means the connection dropped first.
	OutcomeRejected
	// OutcomeCancelled means the caller gave up (timeout or context).
	OutcomeCancelled
)

// Result is delivered exactly once per pending request.
type Result struct {
	Outcome Outcome
	Frame   *proto.Frame
	Err     error
}

// PendingRequest is a one-shot correlated wait on an otherwise push-based
// channel. It is owned by the Dispatcher: registered via Await, removed
// on the first matching frame, on connection loss, or when the caller
// cancels. A frame consumed by a pending request is never also routed as
// a broadcast.
type PendingRequest struct {
	ID        string
	predicate func(*proto.Frame) bool
	done      chan Result
}

// Done yields the single terminal result.
func (p *PendingRequest) Done() <-chan Result { return p.done }

func (p *PendingRequest) finish(res Result) {
	p.done <- res
}
