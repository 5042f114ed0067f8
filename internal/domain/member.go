package domain

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is an admitted connection: who it is, where it sits and what it may do.
// No transport or lifecycle logic here.
type Member struct {
	User *User
	Room RoomName
	Role Role
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User, room RoomName, role Role) *Member {
	return &Member{User: user, Room: room, Role: role}
}

func (m *Member) IsAdmin() bool { return m.Role == RoleAdmin }
