package realtime

import (
	"testing"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent   []any
	closed bool
	fail   error
}

func (f *fakeSender) Send(msg any) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func presence(driverID, connID string) tracking.DriverPresence {
	return tracking.DriverPresence{
		DriverID:     driverID,
		Latitude:     12.97,
		Longitude:    77.59,
		ConnectionID: connID,
		UpdatedAt:    time.Now().UTC(),
	}
}

func TestBindAndDeliver(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{}

	r.Bind("conn-1", "user-1", user.RoleCustomer, s)

	require.NoError(t, r.Deliver("conn-1", "hello"))
	assert.Equal(t, []any{"hello"}, s.sent)

	assert.ErrorIs(t, r.Deliver("conn-x", "nope"), ErrNotConnected)
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	r := NewRegistry()
	first := &fakeSender{}
	second := &fakeSender{}

	r.Bind("conn-1", "drv-1", user.RoleDriver, first)
	r.Bind("conn-2", "drv-1", user.RoleDriver, second)

	assert.True(t, first.closed, "superseded transport must be closed")
	assert.ErrorIs(t, r.Deliver("conn-1", "x"), ErrNotConnected)

	id, ok := r.ConnectionFor("drv-1")
	require.True(t, ok)
	assert.Equal(t, "conn-2", id)
}

func TestUnbindGuardedByConnectionID(t *testing.T) {
	r := NewRegistry()
	r.Bind("conn-2", "drv-1", user.RoleDriver, &fakeSender{})

	// stale disconnect from the superseded connection
	assert.False(t, r.Unbind("drv-1", "conn-1"))
	_, ok := r.ConnectionFor("drv-1")
	assert.True(t, ok)

	assert.True(t, r.Unbind("drv-1", "conn-2"))
	_, ok = r.ConnectionFor("drv-1")
	assert.False(t, ok)

	// idempotent
	assert.False(t, r.Unbind("drv-1", "conn-2"))
}

func TestUpsertDriverLastWriterWins(t *testing.T) {
	r := NewRegistry()

	r.UpsertDriver(presence("drv-1", "conn-1"))
	r.UpsertDriver(presence("drv-1", "conn-2"))

	p, ok := r.Driver("drv-1")
	require.True(t, ok)
	assert.Equal(t, "conn-2", p.ConnectionID)
	assert.Equal(t, 1, r.OnlineDriverCount())
}

func TestRemoveDriverIfConnFencesStaleDisconnect(t *testing.T) {
	r := NewRegistry()
	r.UpsertDriver(presence("drv-1", "conn-2"))

	// the old connection's cleanup fires after being superseded
	assert.False(t, r.RemoveDriverIfConn("drv-1", "conn-1"))
	_, ok := r.Driver("drv-1")
	assert.True(t, ok, "newer presence must survive a stale disconnect")

	assert.True(t, r.RemoveDriverIfConn("drv-1", "conn-2"))
	_, ok = r.Driver("drv-1")
	assert.False(t, ok)
}

func TestRemoveDriverIdempotent(t *testing.T) {
	r := NewRegistry()
	r.RemoveDriver("ghost")
	r.UpsertDriver(presence("drv-1", "conn-1"))
	r.RemoveDriver("drv-1")
	r.RemoveDriver("drv-1")
	assert.Equal(t, 0, r.OnlineDriverCount())
}

func TestDriverSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.UpsertDriver(presence("drv-1", "conn-1"))
	r.UpsertDriver(presence("drv-2", "conn-2"))

	snap := r.DriverSnapshot()
	assert.Len(t, snap, 2)

	snap[0].DriverID = "mutated"
	for _, id := range []string{"drv-1", "drv-2"} {
		_, ok := r.Driver(id)
		assert.True(t, ok)
	}
}
