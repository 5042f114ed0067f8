package core

import (
	"github.com/dkeye/RoomChat/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Role     domain.Role   `json:"role"`
}

// RoomService is the core-facing API of a room.
// It owns the ordered member sequence but never touches transport resources.
// Position 0 of the sequence is the admin.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Members() []SessionID
	MembersSnapshot() []MemberDTO
	Admin() (SessionID, bool)

	// AddMember appends sid to the end of the sequence.
	AddMember(sid SessionID, ms MemberSession)
	// RemoveMember reports whether sid was found and whether it was the admin.
	RemoveMember(sid SessionID) (removed, wasAdmin bool)
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

type RoomManager interface {
	Get(name domain.RoomName) (RoomService, bool)
	GetOrCreate(name domain.RoomName) RoomService
	List() []RoomInfo
	StopRoom(name domain.RoomName)
}
