package core

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatp-client/internal/proto"
)

// Hooks let the connection layer react to dispatch outcomes that drive
// the session lifecycle, without the dispatcher owning the transport.
// Hooks run on the read-loop goroutine after the routing lock is
// released, so they may call back into the dispatcher.
type Hooks struct {
	// OnLoginSuccess fires after a successful login_event has been
	// applied (inline roster included).
	OnLoginSuccess func(frame *proto.Frame)
	// OnLoginFailed fires on an authentication rejection. It must not
	// trigger reconnection.
	OnLoginFailed func(reason string)
	// OnRoomCreated fires when room creation succeeds, so the client can
	// auto-join the new room.
	OnRoomCreated func(room string)
}

// Dispatcher routes inbound frames: first against the pending-request
// table, then by handler (and type, for room events) to the state
// mutation for that event. All session, room and roster state hangs off
// the dispatcher and is mutated nowhere else. A single mutex serializes
// the routing path, so handlers never race.
type Dispatcher struct {
	mu      sync.Mutex
	rooms   map[string]*Membership
	roster  *Roster
	pending []*PendingRequest
	sink    Sink
	hooks   Hooks
	log     zerolog.Logger
}

// NewDispatcher builds a dispatcher publishing into sink.
func NewDispatcher(sink Sink, logger zerolog.Logger) *Dispatcher {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Dispatcher{
		rooms:  make(map[string]*Membership),
		roster: NewRoster(),
		sink:   sink,
		log:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// SetHooks installs the connection layer's callbacks.
func (d *Dispatcher) SetHooks(h Hooks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = h
}

// Dispatch routes one inbound frame. A frame that satisfies a pending
// request's predicate resolves that request and is not broadcast-routed.
// Unknown handlers and types are ignored. Hooks fire after the routing
// lock is released.
func (d *Dispatcher) Dispatch(f *proto.Frame) {
	d.mu.Lock()
	var after func()

	switch {
	case d.resolvePending(f):
	case f.Handler == proto.HandlerLoginEvent:
		after = d.handleLoginEvent(f)
	case f.Handler == proto.HandlerRoster:
		d.handleRoster(f)
	case proto.IsRoomList(f.Handler):
		d.handleRoomDirectory(f)
	case f.Handler == proto.HandlerRoomJoin:
		// Some servers answer a join with a membership snapshot instead
		// of a room_event you_joined.
		if _, ok := f.Users(); ok {
			d.handleYouJoined(f)
		}
	case proto.IsChat(f.Handler):
		d.publishChat(f, chatKind(f.Type))
	case f.Handler == proto.HandlerRoomEvent:
		after = d.handleRoomEvent(f)
	default:
		d.log.Debug().Str("handler", f.Handler).Msg("ignoring unknown handler")
	}

	d.mu.Unlock()
	if after != nil {
		after()
	}
}

// Await registers a one-shot wait for a frame satisfying pred.
func (d *Dispatcher) Await(pred func(*proto.Frame) bool) *PendingRequest {
	p := &PendingRequest{
		ID:        proto.NewID(),
		predicate: pred,
		done:      make(chan Result, 1),
	}
	d.mu.Lock()
	d.pending = append(d.pending, p)
	d.mu.Unlock()
	return p
}

// Cancel removes a pending request on behalf of its caller (timeout or
// context). No-op if the request already finished.
func (d *Dispatcher) Cancel(p *PendingRequest, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.remove(p) {
		p.finish(Result{Outcome: OutcomeCancelled, Err: err})
	}
}

// RejectAll fails every outstanding request, used when the connection
// transitions out of Online.
func (d *Dispatcher) RejectAll(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pending {
		p.finish(Result{Outcome: OutcomeRejected, Err: err})
	}
	d.pending = nil
}

// Reset drops all per-room state. Membership does not survive a
// disconnect.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = make(map[string]*Membership)
}

// DropRoom forgets a room after leaving it.
func (d *Dispatcher) DropRoom(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, name)
}

// PendingCount reports outstanding requests.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// RoomView is a copy of a room's state safe to hand outside the
// dispatch path.
type RoomView struct {
	Room            string
	Subject         string
	SubjectAuthor   string
	CaptchaPending  bool
	CaptchaFailures int
	Users           []RoomUser
}

// Room returns a snapshot of a joined room.
func (d *Dispatcher) Room(name string) (RoomView, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.rooms[name]
	if !ok {
		return RoomView{}, false
	}
	return RoomView{
		Room:            m.Room,
		Subject:         m.Subject,
		SubjectAuthor:   m.SubjectAuthor,
		CaptchaPending:  m.CaptchaPending,
		CaptchaFailures: m.CaptchaFailures,
		Users:           m.SortedUsers(),
	}, true
}

// RoomNames lists currently joined rooms.
func (d *Dispatcher) RoomNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	return names
}

// RosterEntries returns the friend list, online first.
func (d *Dispatcher) RosterEntries() []RosterEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.roster.Entries()
}

// resolvePending consumes the frame if any outstanding request matches.
func (d *Dispatcher) resolvePending(f *proto.Frame) bool {
	for _, p := range d.pending {
		if p.predicate(f) {
			d.remove(p)
			p.finish(Result{Outcome: OutcomeResolved, Frame: f})
			return true
		}
	}
	return false
}

func (d *Dispatcher) remove(p *PendingRequest) bool {
	for i, q := range d.pending {
		if q == p {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Dispatcher) handleLoginEvent(f *proto.Frame) func() {
	if f.Type != "success" {
		reason := f.String("reason")
		d.sink.Publish(Event{Kind: EventLoginFailed, Reason: reason})
		if hook := d.hooks.OnLoginFailed; hook != nil {
			return func() { hook(reason) }
		}
		return nil
	}
	// Successful login carries the roster inline.
	if users, ok := f.Users(); ok {
		d.applyRoster(users)
	}
	if hook := d.hooks.OnLoginSuccess; hook != nil {
		return func() { hook(f) }
	}
	return nil
}

func (d *Dispatcher) handleRoster(f *proto.Frame) {
	users, ok := f.Users()
	if !ok {
		return
	}
	d.applyRoster(users)
}

func (d *Dispatcher) applyRoster(users []proto.WireUser) {
	entries := make([]RosterEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, RosterEntry{
			Username: u.Username,
			Online:   u.Mode == "online",
			PhotoURL: u.PhotoURL,
			Status:   u.Status,
		})
	}
	d.roster.ReplaceAll(entries)
	d.sink.Publish(Event{Kind: EventRoster, Roster: d.roster.Entries()})
}

func (d *Dispatcher) handleRoomDirectory(f *proto.Frame) {
	rooms, ok := f.Rooms()
	if !ok {
		return
	}
	d.sink.Publish(Event{Kind: EventRoomDirectory, Rooms: SummariesFromWire(rooms)})
}

func (d *Dispatcher) handleRoomEvent(f *proto.Frame) func() {
	switch {
	case f.Type == proto.TypeYouJoined:
		d.handleYouJoined(f)
	case f.Type == proto.TypeUserJoined:
		d.handleUserJoined(f)
	case f.Type == proto.TypeUserLeft:
		d.handleUserLeft(f)
	case f.Type == proto.TypeText, f.Type == proto.TypeImage,
		f.Type == proto.TypeAudio, f.Type == proto.TypeGift:
		d.publishChat(f, f.Type)
	case f.Type == proto.TypeSubject:
		d.handleSubject(f)
	case f.Type == proto.TypeRoleChanged:
		d.handleRoleChanged(f)
	case f.Type == proto.TypeRoomCreate:
		return d.handleRoomCreate(f)
	case f.Type == proto.TypeNeedsPassword:
		d.sink.Publish(Event{Kind: EventPasswordRequired, Room: roomOf(f)})
	case proto.IsCaptchaRequest(f.Type):
		d.handleCaptchaRequest(f)
	case f.Type == proto.TypeCaptchaFailed:
		d.handleCaptchaFailed(f)
	case proto.IsCaptchaPassed(f.Type):
		d.handleCaptchaPassed(f)
	default:
		d.log.Debug().Str("type", f.Type).Msg("ignoring unknown room event")
	}
	return nil
}

// handleYouJoined replaces the room's membership wholesale with the
// snapshot in the frame. It runs before any per-user handling of the
// same payload and clears a pending challenge.
func (d *Dispatcher) handleYouJoined(f *proto.Frame) {
	room := roomOf(f)
	if room == "" {
		return
	}
	m := d.ensureRoom(room)
	users, _ := f.Users()
	m.ReplaceUsers(roomUsersFromWire(users))
	if f.Has("subject") {
		m.Subject = f.String("subject")
		m.SubjectAuthor = f.String("subject_author")
	}
	m.CaptchaPending = false
	d.sink.Publish(Event{
		Kind:          EventRoomJoined,
		Room:          room,
		Users:         m.SortedUsers(),
		Subject:       m.Subject,
		SubjectAuthor: m.SubjectAuthor,
	})
}

func (d *Dispatcher) handleUserJoined(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	u := RoomUser{
		Username:  f.String("username"),
		Role:      ParseRole(f.String("role")),
		AvatarURL: f.String("avatar_url"),
	}
	if u.Username == "" {
		return
	}
	m.AddUser(u)
	d.sink.Publish(Event{Kind: EventUserJoined, Room: room, User: u})
}

func (d *Dispatcher) handleUserLeft(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	username := f.String("username")
	if !m.RemoveUser(username) {
		return
	}
	d.sink.Publish(Event{Kind: EventUserLeft, Room: room, User: RoomUser{Username: username}})
}

func (d *Dispatcher) handleSubject(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	m.Subject = f.String("subject")
	m.SubjectAuthor = f.String("subject_author")
	if m.SubjectAuthor == "" {
		m.SubjectAuthor = f.String("username")
	}
	d.sink.Publish(Event{
		Kind:          EventSubjectChanged,
		Room:          room,
		Subject:       m.Subject,
		SubjectAuthor: m.SubjectAuthor,
	})
}

func (d *Dispatcher) handleRoleChanged(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	username := f.String("t_username")
	if username == "" {
		username = f.String("username")
	}
	roleStr := f.String("new_role")
	if roleStr == "" {
		roleStr = f.String("t_role")
	}
	role := ParseRole(roleStr)
	if !m.SetRole(username, role) {
		return
	}
	d.sink.Publish(Event{
		Kind: EventRoleChanged,
		Room: room,
		User: RoomUser{Username: username, Role: role},
	})
}

func (d *Dispatcher) handleRoomCreate(f *proto.Frame) func() {
	room := roomOf(f)
	result := f.String("result")
	if result == "success" {
		if hook := d.hooks.OnRoomCreated; hook != nil {
			return func() { hook(room) }
		}
		return nil
	}
	reason := result
	switch result {
	case ErrCodeRoomExists:
		reason = "room already exists"
	case ErrCodeEmptyBalance:
		reason = "insufficient balance"
	case "":
		reason = "room creation failed"
	}
	d.sink.Publish(Event{Kind: EventRoomCreateFailed, Room: room, Reason: reason})
	return nil
}

func (d *Dispatcher) handleCaptchaRequest(f *proto.Frame) {
	room := roomOf(f)
	m := d.ensureRoom(room)
	m.CaptchaPending = true
	d.sink.Publish(Event{Kind: EventCaptchaRequired, Room: room, Status: f.String("message")})
}

func (d *Dispatcher) handleCaptchaFailed(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	// The challenge stays pending; only the failure notice is new.
	m.CaptchaFailures++
	d.sink.Publish(Event{Kind: EventCaptchaFailed, Room: room})
}

func (d *Dispatcher) handleCaptchaPassed(f *proto.Frame) {
	room := roomOf(f)
	m, ok := d.rooms[room]
	if !ok {
		return
	}
	m.CaptchaPending = false
	d.sink.Publish(Event{Kind: EventCaptchaPassed, Room: room})
}

func (d *Dispatcher) publishChat(f *proto.Frame, kind string) {
	body := f.String("body")
	if body == "" {
		body = f.String("message")
	}
	from := f.String("from")
	if from == "" {
		from = f.String("username")
	}
	d.sink.Publish(Event{
		Kind: EventChatMessage,
		Room: roomOf(f),
		Message: &ChatMessage{
			Room:   roomOf(f),
			From:   from,
			Kind:   kind,
			Body:   body,
			URL:    f.String("url"),
			Length: f.Int("length", 0),
		},
	})
}

func (d *Dispatcher) ensureRoom(name string) *Membership {
	if m, ok := d.rooms[name]; ok {
		return m
	}
	m := newMembership(name)
	d.rooms[name] = m
	return m
}

func roomOf(f *proto.Frame) string {
	if room := f.String("room"); room != "" {
		return room
	}
	return f.String("name")
}

func chatKind(typ string) string {
	switch typ {
	case proto.TypeImage, proto.TypeAudio, proto.TypeGift:
		return typ
	default:
		return proto.TypeText
	}
}

func roomUsersFromWire(users []proto.WireUser) []RoomUser {
	out := make([]RoomUser, 0, len(users))
	for _, u := range users {
		avatar := u.AvatarURL
		if avatar == "" {
			avatar = u.PhotoURL
		}
		out = append(out, RoomUser{
			Username:  u.Username,
			Role:      ParseRole(u.Role),
			AvatarURL: avatar,
		})
	}
	return out
}

// SummariesFromWire converts directory entries off the wire.
func SummariesFromWire(rooms []proto.WireRoom) []RoomSummary {
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomSummary{
			Name:              r.Name,
			UserCount:         int(r.UsersCount),
			PasswordProtected: bool(r.PasswordProtected),
			MembersOnly:       bool(r.MembersOnly),
		})
	}
	return out
}
