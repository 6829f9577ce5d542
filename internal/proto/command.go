package proto

import "strconv"

// Command is a logical outbound action before wire encoding. Name is a
// logical command name (Cmd* constants); the codec resolves it to a wire
// handler through its Variant and stamps a fresh correlation id.
type Command struct {
	Name   string
	Type   string
	Fields map[string]any
}

// Login authenticates the session.
func Login(username, password string) Command {
	return Command{
		Name: CmdLogin,
		Fields: map[string]any{
			"username": username,
			"password": password,
		},
	}
}

// ListRooms requests one page of the public room directory. The page
// number travels as a string, as the servers expect.
func ListRooms(mucType string, page int) Command {
	return Command{
		Name: CmdRoomList,
		Type: mucType,
		Fields: map[string]any{
			"page": strconv.Itoa(page),
		},
	}
}

// JoinRoom subscribes to a room. Password is included only when set.
func JoinRoom(name, password string) Command {
	fields := map[string]any{"name": name}
	if password != "" {
		fields["password"] = password
	}
	return Command{Name: CmdRoomJoin, Fields: fields}
}

// LeaveRoom unsubscribes from a room.
func LeaveRoom(name string) Command {
	return Command{Name: CmdRoomLeave, Fields: map[string]any{"name": name}}
}

// Chat sends a room message. Kind is one of text, image, audio, gift.
// URL and length only apply to media kinds; the codec drops them for the
// flat chat_message shape.
func Chat(room, kind, body, url string, length int) Command {
	return Command{
		Name: CmdChat,
		Type: kind,
		Fields: map[string]any{
			"room":   room,
			"body":   body,
			"url":    url,
			"length": length,
		},
	}
}

// SetSubject changes a room's subject line.
func SetSubject(room, subject string) Command {
	return Command{
		Name: CmdSubject,
		Fields: map[string]any{
			"room":    room,
			"subject": subject,
		},
	}
}

// ChangeRole grants a member a new role.
func ChangeRole(room, username, role string) Command {
	return Command{
		Name: CmdRoomAdmin,
		Type: "change_role",
		Fields: map[string]any{
			"room":       room,
			"t_username": username,
			"t_role":     role,
		},
	}
}

// Kick removes a member from a room.
func Kick(room, username string) Command {
	return Command{
		Name: CmdRoomAdmin,
		Type: "kick",
		Fields: map[string]any{
			"room":       room,
			"t_username": username,
		},
	}
}

// ListUsers requests the member list of a room.
func ListUsers(room string) Command {
	return Command{Name: CmdListUsers, Fields: map[string]any{"room": room}}
}

// CreateRoom asks the server to create a new room.
func CreateRoom(name string) Command {
	return Command{Name: CmdRoomCreate, Fields: map[string]any{"name": name}}
}

// CaptchaAnswer submits a challenge answer for a room.
func CaptchaAnswer(room, answer string) Command {
	return Command{
		Name: CmdCaptcha,
		Fields: map[string]any{
			"room":   room,
			"answer": answer,
		},
	}
}
