package http

import (
	nethttp "net/http"

	"github.com/dkeye/RoomChat/internal/app/orch"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomHandlers struct {
	orch *orch.Orchestrator
}

type roomView struct {
	core.RoomInfo
	PendingCount int `json:"pending_count"`
}

func (h *roomHandlers) list(c *gin.Context) {
	infos := h.orch.Rooms.List()
	out := make([]roomView, 0, len(infos))
	for _, info := range infos {
		out = append(out, roomView{
			RoomInfo:     info,
			PendingCount: h.orch.Pending.CountForRoom(info.Name),
		})
	}
	c.JSON(nethttp.StatusOK, gin.H{"rooms": out})
}

func (h *roomHandlers) members(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	room, ok := h.orch.Rooms.Get(name)
	if !ok {
		c.JSON(nethttp.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{
		"room":    name,
		"members": room.MembersSnapshot(),
	})
}
