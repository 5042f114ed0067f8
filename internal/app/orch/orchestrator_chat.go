package orch

import (
	"encoding/json"
	"time"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/rs/zerolog/log"
)

// memberRoom resolves the room of an admitted sender.
func (o *Orchestrator) memberRoom(sid core.SessionID) (*domain.Member, core.RoomService, bool) {
	roomName, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, nil, false
	}
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return nil, nil, false
	}
	return sess.Meta(), room, true
}

// RelayText delivers text to the rest of the sender's room.
// Senders that are not admitted are silently dropped.
func (o *Orchestrator) RelayText(sid core.SessionID, text string) {
	m, room, ok := o.memberRoom(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("text from non-member dropped")
		return
	}
	o.broadcast(room, sid, core.EventReceive, core.Receive{
		Message: text,
		Name:    m.User.Username,
		Type:    core.KindText,
	})
	o.Metrics.ObserveRelay(core.KindText)
}

// RelayMedia delivers an opaque media payload to the rest of the sender's room.
func (o *Orchestrator) RelayMedia(sid core.SessionID, payload json.RawMessage, fileName, kind string) {
	m, room, ok := o.memberRoom(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("media from non-member dropped")
		return
	}
	if kind != core.KindImage {
		kind = core.KindFile
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	o.broadcast(room, sid, core.EventReceive, core.Receive{
		Message:  payload,
		FileName: fileName,
		Name:     m.User.Username,
		Type:     kind,
	})
	o.Metrics.ObserveRelay(kind)
}

// AnnounceJoin tells the rest of the room that sid joined.
func (o *Orchestrator) AnnounceJoin(sid core.SessionID) {
	m, room, ok := o.memberRoom(sid)
	if !ok {
		return
	}
	o.broadcast(room, sid, core.EventUserJoined, core.UserJoined{Name: m.User.Username})
}

// AnnounceLeft tells the rest of the room that sid left. Call it before removing sid.
func (o *Orchestrator) AnnounceLeft(sid core.SessionID, at time.Time) {
	m, room, ok := o.memberRoom(sid)
	if !ok {
		return
	}
	o.broadcast(room, sid, core.EventLeft, core.Left{Name: m.User.Username, Time: at.Format(leftTimeFormat)})
}

// AnnouncePromotion notifies the new admin.
func (o *Orchestrator) AnnouncePromotion(sid core.SessionID) {
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("promoted to admin")
	o.emit(sid, core.EventAdminNotification, msgPromoted)
}
