package app

import (
	"fmt"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return KickMember
}

// ApprovalPolicy decides whether caller may approve or deny req.
// room is the room req asks for; it may be nil.
type ApprovalPolicy interface {
	CanResolve(caller core.SessionID, req domain.PendingJoin, room core.RoomService) bool
}

// AdminOnlyApproval lets only the current admin of the requested room resolve.
type AdminOnlyApproval struct{}

func (AdminOnlyApproval) CanResolve(caller core.SessionID, _ domain.PendingJoin, room core.RoomService) bool {
	if room == nil {
		return false
	}
	admin, ok := room.Admin()
	return ok && admin == caller
}

// OpenApproval lets any connection resolve any pending request.
type OpenApproval struct{}

func (OpenApproval) CanResolve(core.SessionID, domain.PendingJoin, core.RoomService) bool {
	return true
}

const (
	ApprovalModeAdmin = "admin"
	ApprovalModeOpen  = "open"
)

func ApprovalPolicyFor(mode string) (ApprovalPolicy, error) {
	switch mode {
	case "", ApprovalModeAdmin:
		return AdminOnlyApproval{}, nil
	case ApprovalModeOpen:
		return OpenApproval{}, nil
	default:
		return nil, fmt.Errorf("unknown approval mode %q", mode)
	}
}
