package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoinRequest(ctx context.Context, sid core.SessionID, token string, conn *WsSignalConn, data json.RawMessage) {
	var p core.JoinRequest
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(token) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Msg("join rate limited")
		ctl.sendError(conn, "too many join attempts, slow down")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Str("name", p.Name).Msg("join-request")
	ctl.submit(ctx, sid, func() { ctl.Orch.SubmitJoin(sid, p.Name, p.Room) })
}

func (ctl *SignalWSController) handleApprove(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.ApproveJoin
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("requester", string(p.ConnectionID)).Msg("approve-join")
	ctl.submit(ctx, sid, func() { ctl.Orch.Approve(sid, p.ConnectionID, p.Room) })
}

func (ctl *SignalWSController) handleDeny(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.DenyJoin
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("requester", string(p.ConnectionID)).Msg("deny-join")
	ctl.submit(ctx, sid, func() { ctl.Orch.Deny(sid, p.ConnectionID) })
}
