package proto

import (
	"encoding/json"
	"strconv"
)

// Frame is a decoded inbound message. Handler, Type and ID are lifted out
// of the payload; everything else stays raw and is pulled out on demand,
// because servers send most values stringly-typed and field sets vary
// between protocol versions.
type Frame struct {
	Handler string
	Type    string
	ID      string
	Raw     []byte

	fields map[string]json.RawMessage
}

// Has reports whether the payload carries the named field at all.
func (f *Frame) Has(key string) bool {
	_, ok := f.fields[key]
	return ok
}

// String returns the named field as a string. Numbers are formatted,
// anything else yields "".
func (f *Frame) String(key string) string {
	raw, ok := f.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Int returns the named field as an int, accepting both JSON numbers and
// numeric strings. Returns def when absent or unparseable.
func (f *Frame) Int(key string, def int) int {
	raw, ok := f.fields[key]
	if !ok {
		return def
	}
	var n flexInt
	if err := json.Unmarshal(raw, &n); err != nil {
		return def
	}
	return int(n)
}

// PageCount interprets the "page" field as the reported total page count
// of a paginated response, defaulting to 1.
func (f *Frame) PageCount() int {
	n := f.Int("page", 1)
	if n < 1 {
		return 1
	}
	return n
}

// Users decodes the "users" field. ok is false when the field is absent.
func (f *Frame) Users() (users []WireUser, ok bool) {
	raw, present := f.fields["users"]
	if !present {
		return nil, false
	}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false
	}
	return users, true
}

// Rooms decodes the "rooms" field. ok is false when the field is absent,
// which a paginated fetch treats as end of data.
func (f *Frame) Rooms() (rooms []WireRoom, ok bool) {
	raw, present := f.fields["rooms"]
	if !present {
		return nil, false
	}
	if err := json.Unmarshal(raw, &rooms); err != nil {
		return nil, false
	}
	return rooms, true
}

// WireUser is a user record as it appears on the wire. Roster entries use
// photo_url/mode/status, room member lists use avatar_url/role; one type
// covers both.
type WireUser struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Mode      string `json:"mode"`
	PhotoURL  string `json:"photo_url"`
	AvatarURL string `json:"avatar_url"`
	Status    string `json:"status"`
}

// WireRoom is a directory entry as it appears on the wire.
type WireRoom struct {
	Name              string   `json:"name"`
	UsersCount        flexInt  `json:"users_count"`
	PasswordProtected flexBool `json:"password_protected"`
	MembersOnly       flexBool `json:"members_only"`
}

// flexInt unmarshals from a JSON number or a numeric string.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*n = flexInt(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := strconv.Atoi(s)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(parsed)
	return nil
}

// flexBool unmarshals from true/false, 0/1, or the strings "0"/"1".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = s == "1" || s == "true"
	return nil
}
