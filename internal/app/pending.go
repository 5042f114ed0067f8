package app

import (
	"sort"
	"sync"
	"time"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/rs/zerolog/log"
)

// PendingTable holds join requests waiting for approval, at most one per session.
type PendingTable struct {
	mu       sync.RWMutex
	seq      uint64
	requests map[core.SessionID]domain.PendingJoin
	now      func() time.Time
}

func NewPendingTable() *PendingTable {
	return &PendingTable{
		requests: make(map[core.SessionID]domain.PendingJoin),
		now:      time.Now,
	}
}

// Add queues a request. It returns false if sid already has one.
func (p *PendingTable) Add(sid core.SessionID, username string, room domain.RoomName) (domain.PendingJoin, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.requests[sid]; ok {
		return existing, false
	}
	p.seq++
	req := domain.PendingJoin{
		SID:         domain.UserID(sid),
		Username:    username,
		Room:        room,
		Seq:         p.seq,
		RequestedAt: p.now(),
	}
	p.requests[sid] = req
	log.Info().Str("module", "app.pending").Str("sid", string(sid)).Str("room", string(room)).Msg("request queued")
	return req, true
}

func (p *PendingTable) Get(sid core.SessionID) (domain.PendingJoin, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	req, ok := p.requests[sid]
	return req, ok
}

func (p *PendingTable) Has(sid core.SessionID) bool {
	_, ok := p.Get(sid)
	return ok
}

// Remove resolves the request of sid. Only the first call reports true.
func (p *PendingTable) Remove(sid core.SessionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.requests[sid]; !ok {
		return false
	}
	delete(p.requests, sid)
	log.Info().Str("module", "app.pending").Str("sid", string(sid)).Msg("request resolved")
	return true
}

// ForRoom returns the requests for room, oldest first.
func (p *PendingTable) ForRoom(room domain.RoomName) []domain.PendingJoin {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []domain.PendingJoin
	for _, req := range p.requests {
		if req.Room == room {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (p *PendingTable) CountForRoom(room domain.RoomName) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, req := range p.requests {
		if req.Room == room {
			n++
		}
	}
	return n
}

func (p *PendingTable) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.requests)
}
