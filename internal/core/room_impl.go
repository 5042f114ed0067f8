package core

import (
	"slices"
	"sync"

	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomEntry struct {
	sid     SessionID
	session MemberSession
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	mu      sync.RWMutex
	members []roomEntry
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{room: room}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Members() []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionID, 0, len(r.members))
	for _, e := range r.members {
		out = append(out, e.sid)
	}
	return out
}

func (r *roomImpl) Admin() (SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.members) == 0 {
		return "", false
	}
	return r.members[0].sid, true
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.members, func(e roomEntry) bool { return e.sid == sid }) {
		return
	}
	r.members = append(r.members, roomEntry{sid: sid, session: ms})
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Int("position", len(r.members)-1).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) (removed, wasAdmin bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.members, func(e roomEntry) bool { return e.sid == sid })
	if i < 0 {
		return false, false
	}
	r.members = slices.Delete(r.members, i, i+1)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Bool("was_admin", i == 0).Msg("member removed")
	return true, i == 0
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, e := range r.members {
		if e.sid == from {
			continue
		}
		if err := e.session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, e.session)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.members))
	for i, e := range r.members {
		role := domain.RoleMember
		if i == 0 {
			role = domain.RoleAdmin
		}
		out = append(out, MemberDTO{ID: domain.UserID(e.sid), Username: e.session.Meta().User.Username, Role: role})
	}
	return out
}
