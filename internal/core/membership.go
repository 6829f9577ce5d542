package core

import "sort"

// RoomUser is a member of a room as known to the client.
type RoomUser struct {
	Username  string
	Role      Role
	AvatarURL string
}

// Membership is the authoritative per-room state: present users in join
// order, subject line and challenge status. One instance exists per room
// name; it is mutated only from the dispatcher's routing path.
type Membership struct {
	Room            string
	Subject         string
	SubjectAuthor   string
	CaptchaPending  bool
	CaptchaFailures int

	users []RoomUser
	index map[string]int
}

func newMembership(room string) *Membership {
	return &Membership{
		Room:  room,
		index: make(map[string]int),
	}
}

// ReplaceUsers swaps the membership wholesale for a fresh snapshot.
func (m *Membership) ReplaceUsers(users []RoomUser) {
	m.users = m.users[:0]
	m.index = make(map[string]int, len(users))
	for _, u := range users {
		m.addOrUpdate(u)
	}
}

// AddUser appends a user, or refreshes the stored role and avatar when
// the username is already present. Returns true if the user is new.
func (m *Membership) AddUser(u RoomUser) bool {
	return m.addOrUpdate(u)
}

func (m *Membership) addOrUpdate(u RoomUser) bool {
	if i, ok := m.index[u.Username]; ok {
		m.users[i].Role = u.Role
		if u.AvatarURL != "" {
			m.users[i].AvatarURL = u.AvatarURL
		}
		return false
	}
	m.index[u.Username] = len(m.users)
	m.users = append(m.users, u)
	return true
}

// RemoveUser deletes a user by name. Returns false if absent.
func (m *Membership) RemoveUser(username string) bool {
	i, ok := m.index[username]
	if !ok {
		return false
	}
	m.users = append(m.users[:i], m.users[i+1:]...)
	delete(m.index, username)
	for j := i; j < len(m.users); j++ {
		m.index[m.users[j].Username] = j
	}
	return true
}

// SetRole updates the named user's role in place. No-op when the user is
// unknown; returns whether anything changed.
func (m *Membership) SetRole(username string, role Role) bool {
	i, ok := m.index[username]
	if !ok {
		return false
	}
	m.users[i].Role = role
	return true
}

// Has reports whether the named user is present.
func (m *Membership) Has(username string) bool {
	_, ok := m.index[username]
	return ok
}

// Len returns the number of present users.
func (m *Membership) Len() int { return len(m.users) }

// Users returns a copy of the membership in join order.
func (m *Membership) Users() []RoomUser {
	out := make([]RoomUser, len(m.users))
	copy(out, m.users)
	return out
}

// SortedUsers returns a copy ordered for display: role rank first, then
// username.
func (m *Membership) SortedUsers() []RoomUser {
	out := m.Users()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role.Rank() != out[j].Role.Rank() {
			return out[i].Role.Rank() < out[j].Role.Rank()
		}
		return out[i].Username < out[j].Username
	})
	return out
}
