package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/core"
)

var errFull = errors.New("backpressure")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
	closes int
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closes++
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) events(t *testing.T) []core.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env core.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) ofType(t *testing.T, event string) []core.Envelope {
	t.Helper()
	var out []core.Envelope
	for _, env := range c.events(t) {
		if env.Type == event {
			out = append(out, env)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type harness struct {
	o     *Orchestrator
	reg   *prometheus.Registry
	conns map[core.SessionID]*fakeConn
}

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newHarness(t *testing.T, opts ...func(*Orchestrator)) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	o := &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Pending:  app.NewPendingTable(),
		Policy:   app.SimplePolicy{},
		Approval: app.AdminOnlyApproval{},
		Metrics:  app.NewMetrics(reg),
		Now:      func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(o)
	}
	return &harness{o: o, reg: reg, conns: make(map[core.SessionID]*fakeConn)}
}

func (h *harness) connect(sid core.SessionID) *fakeConn {
	c := &fakeConn{}
	h.conns[sid] = c
	h.o.Registry.BindSignal(sid, c, nil)
	return c
}

func (h *harness) resetAll() {
	for _, c := range h.conns {
		c.reset()
	}
}

func (h *harness) members(room string) []core.SessionID {
	r, ok := h.o.Rooms.Get(roomName(room))
	if !ok {
		return nil
	}
	return r.Members()
}

func data(t *testing.T, env core.Envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// counter reads an unlabelled counter from the harness registry.
func (h *harness) counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
