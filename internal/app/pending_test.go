package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RoomChat/internal/domain"
)

func TestPendingTable_AtMostOnePerSession(t *testing.T) {
	p := NewPendingTable()

	first, ok := p.Add("b", "bob", "General")
	require.True(t, ok)

	again, ok := p.Add("b", "bobby", "Other")
	assert.False(t, ok)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, p.Len())
}

func TestPendingTable_RemoveIsIdempotent(t *testing.T) {
	p := NewPendingTable()
	p.Add("b", "bob", "General")

	assert.True(t, p.Remove("b"))
	assert.False(t, p.Remove("b"))
	assert.False(t, p.Has("b"))
}

func TestPendingTable_ForRoomKeepsSubmissionOrder(t *testing.T) {
	p := NewPendingTable()
	p.Add("c", "carol", "General")
	p.Add("x", "xavier", "Other")
	p.Add("b", "bob", "General")
	p.Add("d", "dave", "General")
	p.Remove("b")

	reqs := p.ForRoom("General")
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.UserID("c"), reqs[0].SID)
	assert.Equal(t, domain.UserID("d"), reqs[1].SID)
	assert.Equal(t, 2, p.CountForRoom("General"))
	assert.Equal(t, 1, p.CountForRoom("Other"))
	assert.Empty(t, p.ForRoom("nobody"))
}
