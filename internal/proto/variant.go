package proto

import "fmt"

// Logical command names. Outbound wire handlers are resolved through a
// Variant because observed chatp servers disagree on several spellings.
const (
	CmdLogin      = "login"
	CmdRoomList   = "room_list"
	CmdRoomJoin   = "room_join"
	CmdRoomLeave  = "room_leave"
	CmdChat       = "chat"
	CmdSubject    = "subject"
	CmdRoomAdmin  = "room_admin"
	CmdListUsers  = "list_user"
	CmdRoomCreate = "room_create"
	CmdCaptcha    = "captcha"
)

// Inbound handler names. Both spellings of the contested handlers are
// accepted on the inbound side regardless of the outbound variant.
const (
	HandlerLoginEvent  = "login_event"
	HandlerRoster      = "roster"
	HandlerRoomInfo    = "room_info"
	HandlerListRoom    = "list_room"
	HandlerRoomJoin    = "room_join"
	HandlerChatMessage = "chat_message"
	HandlerRoomMessage = "room_message"
	HandlerRoomEvent   = "room_event"
)

// Room event types carried in the "type" field of a room_event frame.
const (
	TypeYouJoined       = "you_joined"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
	TypeText            = "text"
	TypeImage           = "image"
	TypeAudio           = "audio"
	TypeGift            = "gift"
	TypeSubject         = "subject"
	TypeRoleChanged     = "role_changed"
	TypeRoomCreate      = "room_create"
	TypeNeedsPassword   = "room_needs_password"
	TypeNeedsCaptcha    = "room_needs_captcha"
	TypeCaptchaRequest  = "captcha_request"
	TypeCaptchaFailed   = "captcha_failed"
	TypeCaptchaPassed   = "captcha_passed"
	TypeCaptchaAccepted = "captcha_accepted"
)

// Variant maps the logical command names whose wire spelling is
// server-version-dependent to concrete handler names.
type Variant struct {
	Name string
	// RoomList is the directory-listing handler: "room_info" or "list_room".
	RoomList string
	// Chat is the outbound chat handler: "chat_message" (flat room+message)
	// or "room_message" (typed body with url/length).
	Chat string
	// Captcha is the challenge-answer handler: "captcha_send",
	// "captcha_response" or "captcha_verify".
	Captcha string
}

// Classic matches the original chatp.net web client.
var Classic = Variant{
	Name:     "classic",
	RoomList: HandlerRoomInfo,
	Chat:     HandlerChatMessage,
	Captcha:  "captcha_send",
}

// Alt matches the newer server spelling seen in other client builds.
var Alt = Variant{
	Name:     "alt",
	RoomList: HandlerListRoom,
	Chat:     HandlerRoomMessage,
	Captcha:  "captcha_response",
}

// VariantByName resolves a configured variant name.
func VariantByName(name string) (Variant, error) {
	switch name {
	case "", Classic.Name:
		return Classic, nil
	case Alt.Name:
		return Alt, nil
	default:
		return Variant{}, fmt.Errorf("unknown protocol variant %q", name)
	}
}

// Handler resolves a logical command name to its wire handler.
func (v Variant) Handler(logical string) string {
	switch logical {
	case CmdRoomList:
		return v.RoomList
	case CmdChat:
		return v.Chat
	case CmdCaptcha:
		return v.Captcha
	default:
		// The rest are spelled the same everywhere.
		return logical
	}
}

// IsRoomList reports whether an inbound handler is a directory listing,
// under either spelling.
func IsRoomList(handler string) bool {
	return handler == HandlerRoomInfo || handler == HandlerListRoom
}

// IsChat reports whether an inbound handler is a chat message, under
// either spelling.
func IsChat(handler string) bool {
	return handler == HandlerChatMessage || handler == HandlerRoomMessage
}

// IsCaptchaRequest reports whether a room event type asks the user to
// solve a challenge.
func IsCaptchaRequest(typ string) bool {
	return typ == TypeNeedsCaptcha || typ == TypeCaptchaRequest
}

// IsCaptchaPassed reports whether a room event type clears a pending
// challenge.
func IsCaptchaPassed(typ string) bool {
	return typ == TypeCaptchaPassed || typ == TypeCaptchaAccepted
}
