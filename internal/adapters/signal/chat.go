package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/RoomChat/internal/core"
)

func (ctl *SignalWSController) handleSend(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		// {"message": "..."} is accepted too
		var p struct {
			Message string `json:"message"`
		}
		if !ctl.decode(sid, conn, data, &p) {
			return
		}
		text = p.Message
	}
	ctl.submit(ctx, sid, func() { ctl.Orch.RelayText(sid, text) })
}

func (ctl *SignalWSController) handleSendMedia(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.SendMedia
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.submit(ctx, sid, func() { ctl.Orch.RelayMedia(sid, p.File, p.FileName, p.Type) })
}
