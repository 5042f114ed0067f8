package app

import (
	"context"
	"sync"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Signal  core.SignalConnection
	Session core.MemberSession // nil until admitted
	Cancel  context.CancelFunc
	// Closing is set once the server decided to drop the connection.
	Closing bool
}

// Registry is the connection registry: every live transport session and,
// for admitted ones, their member meta.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Signal returns the transport of a live session. Closing sessions count as gone.
func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok && !e.Closing {
		return e.Signal, true
	}
	return nil, false
}

// MarkClosing flags sid as on its way out. It stays bound until Unbind so
// its room can still be handed over, but it can no longer join or be admitted.
func (r *Registry) MarkClosing(sid core.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.Closing {
		return false
	}
	e.Closing = true
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session closing")
	return true
}

func (r *Registry) Closing(sid core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	return ok && e.Closing
}

// Admit attaches member meta to a live session. It fails if the session is
// gone or closing.
func (r *Registry) Admit(sid core.SessionID, member *domain.Member) (core.MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.Closing {
		return nil, false
	}
	e.Session = core.NewMemberSession(member, e.Signal)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(member.Room)).Str("role", string(member.Role)).Msg("admitted")
	return e.Session, true
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok && e.Session != nil {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Member(sid core.SessionID) (*domain.Member, bool) {
	sess, ok := r.GetSession(sid)
	if !ok {
		return nil, false
	}
	return sess.Meta(), true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomName, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.Session == nil {
		return "", nil, false
	}
	return entry.Session.Meta().Room, entry.Session, true
}

func (r *Registry) SetRole(sid core.SessionID, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.Session == nil {
		return false
	}
	entry.Session.Meta().Role = role
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("role", string(role)).Msg("updated role")
	return true
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Count returns live sessions and how many of them are admitted.
func (r *Registry) Count() (live, admitted int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.Session != nil {
			admitted++
		}
	}
	return len(r.sessions), admitted
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
