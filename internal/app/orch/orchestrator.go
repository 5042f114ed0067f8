// Package orch holds the room state machine: admission, approval, admin
// succession and fan-out of chat events. Its methods are not safe for
// concurrent use; run them on a Loop.
package orch

import (
	"time"

	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/rs/zerolog/log"
)

const (
	msgWaiting     = "Waiting for admin approval"
	msgDenied      = "The host has denied your request."
	msgRoomBusy    = "Too many pending requests for this room, try again later."
	msgPromoted    = "You are now the Admin of this room."
	leftTimeFormat = "15:04"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Pending  *app.PendingTable
	Policy   app.Policy
	Approval app.ApprovalPolicy
	Metrics  *app.Metrics

	// MaxPendingPerRoom caps queued requests per room; 0 means unlimited.
	MaxPendingPerRoom int
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// emit sends one event to a single live session. Unreachable targets are skipped.
func (o *Orchestrator) emit(sid core.SessionID, event string, data any) {
	conn, ok := o.Registry.Signal(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("target gone, skip")
		return
	}
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("send failed")
	}
}

// broadcast sends one event to every member of room except from.
func (o *Orchestrator) broadcast(room core.RoomService, from core.SessionID, event string, data any) {
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	res := room.Broadcast(from, frame)

	// members already being closed are waiting for OnDisconnect, not slow
	dropped := res.Dropped[:0]
	for _, ms := range res.Dropped {
		if !o.Registry.Closing(core.SessionID(ms.Meta().User.ID)) {
			dropped = append(dropped, ms)
		}
	}
	o.Metrics.ObserveDropped(len(dropped))
	if o.Policy == nil {
		return
	}
	for _, slow := range dropped {
		sid := core.SessionID(slow.Meta().User.ID)
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().Name)).Msg("kicking slow member")
			o.Registry.MarkClosing(sid)
			slow.Signal().Close()
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) syncMetrics() {
	if o.Metrics == nil {
		return
	}
	live, admitted := o.Registry.Count()
	o.Metrics.SetState(live, admitted, len(o.Rooms.List()), o.Pending.Len())
}
