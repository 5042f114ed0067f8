package signal

import (
	"context"

	"github.com/dkeye/RoomChat/internal/core"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, core.EventPong, nil)
}

func (ctl *SignalWSController) handleWhoAmI(ctx context.Context, sid core.SessionID) {
	ctl.submit(ctx, sid, func() { ctl.Orch.WhoAmI(sid) })
}
