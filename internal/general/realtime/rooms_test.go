package realtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeTransport records deliveries per connection and can fail selectively.
type fakeTransport struct {
	delivered map[string][]any
	dead      map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		delivered: make(map[string][]any),
		dead:      make(map[string]bool),
	}
}

func (f *fakeTransport) Deliver(connID string, msg any) error {
	if f.dead[connID] {
		return errors.New("transport closed")
	}
	f.delivered[connID] = append(f.delivered[connID], msg)
	return nil
}

func TestBroadcastExactlyOncePerMember(t *testing.T) {
	tr := newFakeTransport()
	rr := NewRoomRouter(tr)

	rr.Join("del-1", "conn-a")
	rr.Join("del-1", "conn-b")
	rr.Join("del-1", "conn-b") // idempotent join

	rr.Broadcast("del-1", "loc", "")

	assert.Equal(t, []any{"loc"}, tr.delivered["conn-a"])
	assert.Equal(t, []any{"loc"}, tr.delivered["conn-b"])
}

func TestBroadcastExcludesSender(t *testing.T) {
	tr := newFakeTransport()
	rr := NewRoomRouter(tr)

	rr.Join("del-1", "conn-driver")
	rr.Join("del-1", "conn-customer")

	rr.Broadcast("del-1", "loc", "conn-driver")

	assert.Empty(t, tr.delivered["conn-driver"])
	assert.Len(t, tr.delivered["conn-customer"], 1)
}

func TestMemberWhoLeftBeforeBroadcastGetsNothing(t *testing.T) {
	tr := newFakeTransport()
	rr := NewRoomRouter(tr)

	rr.Join("del-1", "conn-a")
	rr.Join("del-1", "conn-b")
	rr.Leave("del-1", "conn-b")

	rr.Broadcast("del-1", "loc", "")

	assert.Len(t, tr.delivered["conn-a"], 1)
	assert.Empty(t, tr.delivered["conn-b"])
}

func TestDeadMemberPrunedLazily(t *testing.T) {
	tr := newFakeTransport()
	rr := NewRoomRouter(tr)

	rr.Join("del-1", "conn-a")
	rr.Join("del-1", "conn-dead")
	tr.dead["conn-dead"] = true

	rr.Broadcast("del-1", "first", "")
	assert.Equal(t, 1, rr.MemberCount("del-1"), "dead member removed on failed send")

	rr.Broadcast("del-1", "second", "")
	assert.Equal(t, []any{"first", "second"}, tr.delivered["conn-a"])
}

func TestRoomDestroyedWhenEmpty(t *testing.T) {
	rr := NewRoomRouter(newFakeTransport())

	rr.Join("del-1", "conn-a")
	assert.Equal(t, 1, rr.RoomCount())

	rr.Leave("del-1", "conn-a")
	assert.Equal(t, 0, rr.RoomCount())

	// leaving a room never joined is a no-op
	rr.Leave("del-2", "conn-a")
	assert.Equal(t, 0, rr.RoomCount())
}

func TestLeaveAllRemovesEveryMembership(t *testing.T) {
	tr := newFakeTransport()
	rr := NewRoomRouter(tr)

	rr.Join("del-1", "conn-a")
	rr.Join("del-2", "conn-a")
	rr.Join("del-2", "conn-b")

	rr.LeaveAll("conn-a")

	assert.Equal(t, 0, rr.MemberCount("del-1"))
	assert.Equal(t, 1, rr.MemberCount("del-2"))

	rr.Broadcast("del-2", "loc", "")
	assert.Empty(t, tr.delivered["conn-a"])
	assert.Len(t, tr.delivered["conn-b"], 1)
}
