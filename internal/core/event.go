package core

// EventKind is a notification the core emits toward the render sink.
type EventKind int

const (
	// EventSessionState reports a session lifecycle transition.
	EventSessionState EventKind = iota
	// EventStatus carries a short user-visible status line.
	EventStatus
	// EventLoginFailed reports an authentication rejection with a reason.
	EventLoginFailed
	// EventRoster delivers the current friend list.
	EventRoster
	// EventRoomDirectory delivers the public room listing.
	EventRoomDirectory
	// EventRoomJoined reports that we entered a room; carries the full
	// membership snapshot.
	EventRoomJoined
	// EventUserJoined reports another user entering a room.
	EventUserJoined
	// EventUserLeft reports a user leaving a room. Collaborating modules
	// holding per-user state key off this to release it.
	EventUserLeft
	// EventChatMessage carries a text, image, audio or gift message.
	EventChatMessage
	// EventSubjectChanged reports a new room subject.
	EventSubjectChanged
	// EventRoleChanged reports a member's role update.
	EventRoleChanged
	// EventCaptchaRequired asks the consumer to solicit a challenge
	// answer for the room.
	EventCaptchaRequired
	// EventCaptchaFailed reports a rejected challenge answer.
	EventCaptchaFailed
	// EventCaptchaPassed reports an accepted challenge answer.
	EventCaptchaPassed
	// EventPasswordRequired reports that a join needs a room password.
	EventPasswordRequired
	// EventRoomCreateFailed reports a failed room creation with a reason.
	EventRoomCreateFailed
)

// ChatMessage is a received room message of any kind.
type ChatMessage struct {
	Room   string
	From   string
	Kind   string // text, image, audio, gift
	Body   string
	URL    string
	Length int
}

// Event describes a state change for the render sink. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind EventKind

	State         SessionState
	Status        string
	Reason        string
	Room          string
	User          RoomUser
	Users         []RoomUser
	Roster        []RosterEntry
	Rooms         []RoomSummary
	Message       *ChatMessage
	Subject       string
	SubjectAuthor string
}

// Sink consumes the core's event stream. Implementations decide all
// presentation; the core never formats user-facing strings beyond short
// status lines. Publish is called from the dispatch path and must not
// call back into the Dispatcher synchronously.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(ev Event) { f(ev) }

// RoomSummary is a public-directory entry, independent of any joined
// room's membership.
type RoomSummary struct {
	Name              string
	UserCount         int
	PasswordProtected bool
	MembersOnly       bool
}
