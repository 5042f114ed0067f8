package orch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

func roomName(s string) domain.RoomName { return domain.RoomName(s) }

func TestSubmitJoin_EmptyRoomAdmitsAdmin(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")

	h.o.SubmitJoin("A", "Alice", "General")

	got := a.ofType(t, core.EventJoinSuccess)
	require.Len(t, got, 1)
	var js core.JoinSuccess
	data(t, got[0], &js)
	assert.Equal(t, core.JoinSuccess{Name: "Alice", Room: "General", Role: domain.RoleAdmin}, js)
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
	assert.Empty(t, a.ofType(t, core.EventUserJoined))
}

func TestSubmitJoin_BlankRoomFallsBack(t *testing.T) {
	h := newHarness(t)
	h.connect("A")

	h.o.SubmitJoin("A", "Alice", "   ")

	assert.Equal(t, []core.SessionID{"A"}, h.members(string(domain.FallbackRoom)))
}

func TestSubmitJoin_OccupiedRoomQueues(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.resetAll()

	h.o.SubmitJoin("B", "Bob", " General ")

	require.Len(t, b.ofType(t, core.EventJoinPending), 1)
	assert.Empty(t, b.ofType(t, core.EventJoinSuccess))

	reqs := a.ofType(t, core.EventApprovalRequest)
	require.Len(t, reqs, 1)
	var ar core.ApprovalRequest
	data(t, reqs[0], &ar)
	assert.Equal(t, core.ApprovalRequest{ConnectionID: "B", Name: "Bob", Room: "General"}, ar)

	assert.True(t, h.o.Pending.Has("B"))
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
}

func TestSubmitJoin_DuplicatesIgnored(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.resetAll()

	h.o.SubmitJoin("B", "Bob", "General")
	h.o.SubmitJoin("A", "Alice", "Other")
	h.o.SubmitJoin("ghost", "Ghost", "General")

	assert.Empty(t, a.events(t))
	assert.Equal(t, 1, h.o.Pending.Len())
	_, ok := h.o.Rooms.Get("Other")
	assert.False(t, ok)
}

func TestApprove_AdmitsMemberAtEnd(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")

	var js core.JoinSuccess
	got := b.ofType(t, core.EventJoinSuccess)
	require.Len(t, got, 1)
	data(t, got[0], &js)
	assert.Equal(t, domain.RoleMember, js.Role)

	joined := a.ofType(t, core.EventUserJoined)
	require.Len(t, joined, 1)
	var uj core.UserJoined
	data(t, joined[0], &uj)
	assert.Equal(t, "Bob", uj.Name)
	assert.Empty(t, b.ofType(t, core.EventUserJoined), "no self notice")

	h.o.SubmitJoin("C", "Carol", "General")
	h.o.Approve("A", "C", "General")

	assert.Equal(t, []core.SessionID{"A", "B", "C"}, h.members("General"))
	assert.Len(t, b.ofType(t, core.EventUserJoined), 1)
	assert.Len(t, a.ofType(t, core.EventUserJoined), 2)
	assert.Empty(t, c.ofType(t, core.EventUserJoined))
	assert.Zero(t, h.o.Pending.Len())
}

func TestApprove_SecondResolutionIsNoop(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")
	b.reset()

	h.o.Approve("A", "B", "General")
	h.o.Deny("A", "B")

	assert.Empty(t, b.events(t))
	assert.False(t, b.isClosed())
	assert.Equal(t, []core.SessionID{"A", "B"}, h.members("General"))
}

func TestApprove_UsesRequestedRoom(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")

	h.o.Approve("A", "B", "Elsewhere")

	assert.Equal(t, []core.SessionID{"A", "B"}, h.members("General"))
	_, ok := h.o.Rooms.Get("Elsewhere")
	assert.False(t, ok)
}

func TestApprove_RequesterGoneDiscardsEntry(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Registry.Unbind("B")

	h.o.Approve("A", "B", "General")

	assert.False(t, h.o.Pending.Has("B"))
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
}

func TestApprovalPolicy(t *testing.T) {
	tests := []struct {
		name     string
		approval app.ApprovalPolicy
		admitted bool
	}{
		{name: "admin only rejects a member", approval: app.AdminOnlyApproval{}, admitted: false},
		{name: "open accepts anyone", approval: app.OpenApproval{}, admitted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(o *Orchestrator) { o.Approval = tt.approval })
			h.connect("A")
			h.connect("B")
			c := h.connect("C")
			h.o.SubmitJoin("A", "Alice", "General")
			h.o.SubmitJoin("B", "Bob", "General")
			h.o.Approve("A", "B", "General")
			h.o.SubmitJoin("C", "Carol", "General")

			h.o.Approve("B", "C", "General")

			assert.Equal(t, tt.admitted, len(c.ofType(t, core.EventJoinSuccess)) == 1)
			assert.Equal(t, !tt.admitted, h.o.Pending.Has("C"))
		})
	}
}

func TestDeny_ClosesRequester(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	a.reset()

	h.o.Deny("A", "B")

	denied := b.ofType(t, core.EventJoinDenied)
	require.Len(t, denied, 1)
	var n core.Notice
	data(t, denied[0], &n)
	assert.Equal(t, msgDenied, n.Message)
	assert.True(t, b.isClosed())
	assert.False(t, h.o.Pending.Has("B"))

	h.o.OnDisconnect("B")
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
	assert.Empty(t, a.events(t), "a denied requester never was a member")

	h.o.Approve("A", "B", "General")
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
}

func TestDeny_NonAdminIgnored(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	h.connect("X")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")

	h.o.Deny("X", "B")

	assert.False(t, b.isClosed())
	assert.True(t, h.o.Pending.Has("B"))
}

func TestOnDisconnect_AdminLeavesPromotesNext(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	h.o.Approve("A", "C", "General")
	h.resetAll()

	h.o.OnDisconnect("A")

	for _, conn := range []*fakeConn{b, c} {
		left := conn.ofType(t, core.EventLeft)
		require.Len(t, left, 1)
		var l core.Left
		data(t, left[0], &l)
		assert.Equal(t, core.Left{Name: "Alice", Time: "10:30"}, l)
	}

	notes := b.ofType(t, core.EventAdminNotification)
	require.Len(t, notes, 1)
	var msg string
	data(t, notes[0], &msg)
	assert.Equal(t, msgPromoted, msg)
	assert.Empty(t, c.ofType(t, core.EventAdminNotification))

	assert.Equal(t, []core.SessionID{"B", "C"}, h.members("General"))
	m, ok := h.o.Registry.Member("B")
	require.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, m.Role)
	_, ok = h.o.Registry.Signal("A")
	assert.False(t, ok)
}

func TestOnDisconnect_MemberLeavesNoPromotion(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	h.o.Approve("A", "C", "General")
	h.resetAll()

	h.o.OnDisconnect("B")

	assert.Len(t, a.ofType(t, core.EventLeft), 1)
	assert.Len(t, c.ofType(t, core.EventLeft), 1)
	assert.Empty(t, a.ofType(t, core.EventAdminNotification))
	assert.Empty(t, c.ofType(t, core.EventAdminNotification))
	assert.Equal(t, []core.SessionID{"A", "C"}, h.members("General"))
}

func TestOnDisconnect_LastMemberRemovesRoom(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	h.o.SubmitJoin("A", "Alice", "General")

	h.o.OnDisconnect("A")

	_, ok := h.o.Rooms.Get("General")
	assert.False(t, ok)
	assert.Empty(t, h.o.Rooms.List())

	h.connect("B")
	h.o.SubmitJoin("B", "Bob", "General")
	assert.Equal(t, []core.SessionID{"B"}, h.members("General"))
}

func TestOnDisconnect_PendingRequesterLeaves(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	a.reset()

	h.o.OnDisconnect("B")
	h.o.Approve("A", "B", "General")

	assert.False(t, h.o.Pending.Has("B"))
	assert.Empty(t, a.events(t))
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
}

func TestPromotion_ForwardsOpenRequests(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	b.reset()

	h.o.OnDisconnect("A")

	reqs := b.ofType(t, core.EventApprovalRequest)
	require.Len(t, reqs, 1)
	var ar core.ApprovalRequest
	data(t, reqs[0], &ar)
	assert.Equal(t, core.SessionID("C"), ar.ConnectionID)

	h.o.Approve("B", "C", "General")
	assert.Equal(t, []core.SessionID{"B", "C"}, h.members("General"))
}

func TestEmptiedRoom_AdmitsOldestPending(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	h.resetAll()

	h.o.OnDisconnect("A")

	got := b.ofType(t, core.EventJoinSuccess)
	require.Len(t, got, 1)
	var js core.JoinSuccess
	data(t, got[0], &js)
	assert.Equal(t, domain.RoleAdmin, js.Role)

	reqs := b.ofType(t, core.EventApprovalRequest)
	require.Len(t, reqs, 1)
	assert.Empty(t, c.ofType(t, core.EventJoinSuccess))
	assert.Equal(t, []core.SessionID{"B"}, h.members("General"))
	assert.True(t, h.o.Pending.Has("C"))
}

func TestPendingCap(t *testing.T) {
	h := newHarness(t, func(o *Orchestrator) { o.MaxPendingPerRoom = 1 })
	a := h.connect("A")
	h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	a.reset()

	h.o.SubmitJoin("C", "Carol", "General")

	require.Len(t, c.ofType(t, core.EventJoinDenied), 1)
	assert.True(t, c.isClosed())
	assert.False(t, h.o.Pending.Has("C"))
	assert.Empty(t, a.events(t))
}

func TestWhoAmI(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")
	x := h.connect("X")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")

	h.o.WhoAmI("A")
	h.o.WhoAmI("B")
	h.o.WhoAmI("X")

	var w core.WhoAmI
	data(t, a.ofType(t, core.EventWhoAmI)[0], &w)
	assert.Equal(t, core.WhoAmI{ConnectionID: "A", Status: "admitted", Name: "Alice", Room: "General", Role: domain.RoleAdmin}, w)

	w = core.WhoAmI{}
	data(t, b.ofType(t, core.EventWhoAmI)[0], &w)
	assert.Equal(t, "pending", w.Status)

	w = core.WhoAmI{}
	data(t, x.ofType(t, core.EventWhoAmI)[0], &w)
	assert.Equal(t, "connected", w.Status)
}

func TestDeny_IsTerminal(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Deny("A", "B")
	a.reset()
	b.reset()

	// a join-request already read off the socket before it closed
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.Approve("A", "B", "General")

	assert.False(t, h.o.Pending.Has("B"))
	assert.Empty(t, a.events(t), "no second approval-request, no user-joined")
	assert.Empty(t, b.events(t))
	assert.Equal(t, []core.SessionID{"A"}, h.members("General"))
	_, ok := h.o.Registry.Member("B")
	assert.False(t, ok)

	h.o.OnDisconnect("B")
	assert.Empty(t, a.ofType(t, core.EventLeft))
}

func TestPendingCap_RejectedCannotRequeue(t *testing.T) {
	h := newHarness(t, func(o *Orchestrator) { o.MaxPendingPerRoom = 1 })
	a := h.connect("A")
	h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	require.True(t, c.isClosed())

	h.o.Deny("A", "B")
	a.reset()
	h.o.SubmitJoin("C", "Carol", "General")

	assert.False(t, h.o.Pending.Has("C"))
	assert.Empty(t, a.ofType(t, core.EventApprovalRequest))
}

func TestEmptiedRoom_SkipsClosingRequester(t *testing.T) {
	h := newHarness(t)
	h.connect("A")
	b := h.connect("B")
	c := h.connect("C")
	h.o.SubmitJoin("A", "Alice", "General")
	h.o.SubmitJoin("B", "Bob", "General")
	h.o.SubmitJoin("C", "Carol", "General")
	h.o.Registry.MarkClosing("B")

	h.o.OnDisconnect("A")

	assert.Empty(t, b.ofType(t, core.EventJoinSuccess))
	require.Len(t, c.ofType(t, core.EventJoinSuccess), 1)
	assert.Equal(t, []core.SessionID{"C"}, h.members("General"))
}
