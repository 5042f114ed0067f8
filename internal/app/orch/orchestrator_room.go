package orch

import (
	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/rs/zerolog/log"
)

// SubmitJoin admits sid as admin of an empty room or queues it for approval.
func (o *Orchestrator) SubmitJoin(sid core.SessionID, name, room string) {
	defer o.syncMetrics()
	logger := log.With().Str("module", "orch").Str("sid", string(sid)).Logger()

	if _, ok := o.Registry.Signal(sid); !ok {
		logger.Warn().Msg("join from unknown or closing session")
		return
	}
	if _, ok := o.Registry.Member(sid); ok {
		logger.Warn().Msg("join from admitted member ignored")
		return
	}
	if o.Pending.Has(sid) {
		logger.Warn().Msg("join while already pending ignored")
		return
	}

	username := domain.NormalizeUsername(name)
	roomName := domain.NormalizeRoomName(room)

	r, ok := o.Rooms.Get(roomName)
	if !ok || r.MemberCount() == 0 {
		o.admit(sid, username, roomName, domain.RoleAdmin)
		return
	}

	if o.MaxPendingPerRoom > 0 && o.Pending.CountForRoom(roomName) >= o.MaxPendingPerRoom {
		logger.Warn().Str("room", string(roomName)).Int("cap", o.MaxPendingPerRoom).Msg("pending cap reached")
		o.reject(sid, msgRoomBusy)
		return
	}

	req, _ := o.Pending.Add(sid, username, roomName)
	o.emit(sid, core.EventJoinPending, core.Notice{Message: msgWaiting})
	if admin, ok := r.Admin(); ok {
		o.requestApproval(admin, req)
	}
}

// Approve admits a pending requester as a member of the room it asked for.
// A missing request is not an error: it was already resolved.
func (o *Orchestrator) Approve(caller, requester core.SessionID, targetRoom string) {
	defer o.syncMetrics()
	logger := log.With().Str("module", "orch").Str("caller", string(caller)).Str("sid", string(requester)).Logger()

	req, ok := o.Pending.Get(requester)
	if !ok {
		logger.Debug().Msg("approve: no pending request")
		return
	}
	room, _ := o.Rooms.Get(req.Room)
	if !o.mayResolve(caller, req, room) {
		logger.Warn().Str("room", string(req.Room)).Msg("approve: caller is not allowed")
		return
	}
	o.Pending.Remove(requester)

	if target := domain.NormalizeRoomName(targetRoom); targetRoom != "" && target != req.Room {
		logger.Debug().Str("target", string(target)).Str("room", string(req.Room)).Msg("approve: target room differs, using requested room")
	}
	if _, live := o.Registry.Signal(requester); !live {
		logger.Info().Msg("approve: requester already gone")
		return
	}

	role := domain.RoleMember
	if room == nil || room.MemberCount() == 0 {
		role = domain.RoleAdmin
	}
	o.admit(requester, req.Username, req.Room, role)
}

// Deny drops a pending request, tells the requester and closes its connection.
func (o *Orchestrator) Deny(caller, requester core.SessionID) {
	defer o.syncMetrics()
	logger := log.With().Str("module", "orch").Str("caller", string(caller)).Str("sid", string(requester)).Logger()

	req, ok := o.Pending.Get(requester)
	if !ok {
		logger.Debug().Msg("deny: no pending request")
		return
	}
	room, _ := o.Rooms.Get(req.Room)
	if !o.mayResolve(caller, req, room) {
		logger.Warn().Str("room", string(req.Room)).Msg("deny: caller is not allowed")
		return
	}
	o.Pending.Remove(requester)
	o.Metrics.ObserveDenial()
	logger.Info().Str("room", string(req.Room)).Msg("join denied")
	o.reject(requester, msgDenied)
}

// OnDisconnect forgets sid and, if it was admitted, hands its room over.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	defer o.syncMetrics()
	defer func() {
		o.Registry.Cancel(sid)
		o.Registry.Unbind(sid)
	}()

	if o.Pending.Remove(sid) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("pending requester left")
	}

	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return
	}

	o.AnnounceLeft(sid, o.now())
	_, wasAdmin := room.RemoveMember(sid)

	if room.MemberCount() == 0 {
		o.Rooms.StopRoom(roomName)
		o.rehomePending(roomName)
		return
	}
	if wasAdmin {
		o.promote(room)
	}
}

func (o *Orchestrator) admit(sid core.SessionID, username string, roomName domain.RoomName, role domain.Role) bool {
	member := domain.NewMember(domain.NewUser(domain.UserID(sid), username), roomName, role)
	sess, ok := o.Registry.Admit(sid, member)
	if !ok {
		return false
	}
	room := o.Rooms.GetOrCreate(roomName)
	room.AddMember(sid, sess)
	o.Metrics.ObserveAdmission(role)

	o.emit(sid, core.EventJoinSuccess, core.JoinSuccess{Name: username, Room: roomName, Role: role})
	o.AnnounceJoin(sid)
	return true
}

// promote makes the member now at position 0 the admin and hands it the open requests.
func (o *Orchestrator) promote(room core.RoomService) {
	sid, ok := room.Admin()
	if !ok {
		return
	}
	if !o.Registry.SetRole(sid, domain.RoleAdmin) {
		return
	}
	o.Metrics.ObservePromotion()
	o.AnnouncePromotion(sid)
	for _, req := range o.Pending.ForRoom(room.Room().Name) {
		o.requestApproval(sid, req)
	}
}

// rehomePending admits the oldest live requester of a room that just emptied.
func (o *Orchestrator) rehomePending(roomName domain.RoomName) {
	for _, req := range o.Pending.ForRoom(roomName) {
		sid := core.SessionID(req.SID)
		o.Pending.Remove(sid)
		if !o.admit(sid, req.Username, roomName, domain.RoleAdmin) {
			continue
		}
		for _, rest := range o.Pending.ForRoom(roomName) {
			o.requestApproval(sid, rest)
		}
		return
	}
}

func (o *Orchestrator) requestApproval(admin core.SessionID, req domain.PendingJoin) {
	o.emit(admin, core.EventApprovalRequest, core.ApprovalRequest{
		ConnectionID: core.SessionID(req.SID),
		Name:         req.Username,
		Room:         req.Room,
	})
}

func (o *Orchestrator) reject(sid core.SessionID, reason string) {
	conn, ok := o.Registry.Signal(sid)
	if !ok {
		return
	}
	o.emit(sid, core.EventJoinDenied, core.Notice{Message: reason})
	o.Registry.MarkClosing(sid)
	conn.Close()
}

func (o *Orchestrator) mayResolve(caller core.SessionID, req domain.PendingJoin, room core.RoomService) bool {
	policy := o.Approval
	if policy == nil {
		policy = app.AdminOnlyApproval{}
	}
	return policy.CanResolve(caller, req, room)
}

// WhoAmI reports the state of sid back to it.
func (o *Orchestrator) WhoAmI(sid core.SessionID) {
	resp := core.WhoAmI{ConnectionID: sid, Status: "connected"}
	if req, ok := o.Pending.Get(sid); ok {
		resp.Status = "pending"
		resp.Name = req.Username
		resp.Room = req.Room
	} else if m, ok := o.Registry.Member(sid); ok {
		resp.Status = "admitted"
		resp.Name = m.User.Username
		resp.Room = m.Room
		resp.Role = m.Role
	}
	o.emit(sid, core.EventWhoAmI, resp)
}
