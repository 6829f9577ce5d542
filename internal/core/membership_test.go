package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(users []RoomUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestMembershipJoinLeaveSet(t *testing.T) {
	m := newMembership("lobby")

	steps := []struct {
		op   string
		user string
		want []string
	}{
		{"join", "alice", []string{"alice"}},
		{"join", "bob", []string{"alice", "bob"}},
		{"join", "alice", []string{"alice", "bob"}}, // idempotent
		{"leave", "alice", []string{"bob"}},
		{"leave", "alice", []string{"bob"}}, // absent, no-op
		{"join", "carol", []string{"bob", "carol"}},
		{"leave", "bob", []string{"carol"}},
	}
	for _, step := range steps {
		switch step.op {
		case "join":
			m.AddUser(RoomUser{Username: step.user, Role: RoleMember})
		case "leave":
			m.RemoveUser(step.user)
		}
		assert.Equal(t, step.want, names(m.Users()), "after %s %s", step.op, step.user)
	}
}

func TestReplaceUsersIsWholesale(t *testing.T) {
	m := newMembership("lobby")
	m.AddUser(RoomUser{Username: "alice", Role: RoleMember})

	m.ReplaceUsers([]RoomUser{
		{Username: "bob", Role: RoleAdmin},
		{Username: "carol", Role: RoleMember},
	})

	require.Equal(t, []string{"bob", "carol"}, names(m.Users()))
	assert.False(t, m.Has("alice"))
}

func TestAddUserRefreshesRole(t *testing.T) {
	m := newMembership("lobby")
	require.True(t, m.AddUser(RoomUser{Username: "bob", Role: RoleMember}))
	require.False(t, m.AddUser(RoomUser{Username: "bob", Role: RoleAdmin}))

	users := m.Users()
	require.Len(t, users, 1)
	assert.Equal(t, RoleAdmin, users[0].Role)
}

func TestSetRoleUnknownUserIsNoop(t *testing.T) {
	m := newMembership("lobby")
	m.AddUser(RoomUser{Username: "bob", Role: RoleMember})

	assert.True(t, m.SetRole("bob", RoleAdmin))
	assert.False(t, m.SetRole("ghost", RoleAdmin))

	users := m.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, RoleAdmin, users[0].Role)
}

func TestRemoveUserReindexes(t *testing.T) {
	m := newMembership("lobby")
	for _, name := range []string{"a", "b", "c", "d"} {
		m.AddUser(RoomUser{Username: name, Role: RoleMember})
	}

	require.True(t, m.RemoveUser("b"))
	require.True(t, m.RemoveUser("d"))
	require.True(t, m.Has("c"))
	require.True(t, m.SetRole("c", RoleOwner))

	assert.Equal(t, []string{"a", "c"}, names(m.Users()))
}

func TestSortedUsersByRoleRank(t *testing.T) {
	m := newMembership("lobby")
	m.AddUser(RoomUser{Username: "zoe", Role: RoleMember})
	m.AddUser(RoomUser{Username: "amy", Role: RoleNone})
	m.AddUser(RoomUser{Username: "max", Role: RoleCreator})
	m.AddUser(RoomUser{Username: "kim", Role: RoleAdmin})
	m.AddUser(RoomUser{Username: "ben", Role: RoleOwner})
	m.AddUser(RoomUser{Username: "ada", Role: RoleVisitor})

	got := names(m.SortedUsers())
	assert.Equal(t, []string{"max", "ben", "kim", "zoe", "ada", "amy"}, got)
}

func TestParseRoleUnknownFoldsToNone(t *testing.T) {
	assert.Equal(t, RoleNone, ParseRole("superuser"))
	assert.Equal(t, RoleCreator, ParseRole("creator"))
	assert.Equal(t, 4, ParseRole("outcast").Rank())
}
