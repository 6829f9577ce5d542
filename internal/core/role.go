package core

// Role is a user's standing within a room.
type Role int

const (
	RoleCreator Role = iota
	RoleOwner
	RoleAdmin
	RoleMember
	RoleNone
	RoleOutcast
	RoleVisitor
)

// ParseRole maps a wire role string to a Role. Unknown values fold into
// RoleNone so future server roles sort with the plain users.
func ParseRole(s string) Role {
	switch s {
	case "creator":
		return RoleCreator
	case "owner":
		return RoleOwner
	case "admin":
		return RoleAdmin
	case "member":
		return RoleMember
	case "outcast":
		return RoleOutcast
	case "visitor":
		return RoleVisitor
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	switch r {
	case RoleCreator:
		return "creator"
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	case RoleOutcast:
		return "outcast"
	case RoleVisitor:
		return "visitor"
	default:
		return "none"
	}
}

// Rank orders roles for display: creator first, then owner, admin,
// member; everything else shares the bottom tier.
func (r Role) Rank() int {
	switch r {
	case RoleCreator:
		return 0
	case RoleOwner:
		return 1
	case RoleAdmin:
		return 2
	case RoleMember:
		return 3
	default:
		return 4
	}
}
