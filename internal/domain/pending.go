package domain

import "time"

// PendingJoin is a join attempt waiting for the room admin.
type PendingJoin struct {
	SID         UserID
	Username    string
	Room        RoomName
	Seq         uint64
	RequestedAt time.Time
}
