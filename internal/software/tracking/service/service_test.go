package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
	"courier-track/internal/domain/user"
	"courier-track/internal/general/logger"
	"courier-track/internal/general/realtime"
	"courier-track/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeUOW struct{}

func (fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDeliveries struct {
	mu   sync.Mutex
	byID map[string]delivery.Ownership
	err  error
}

func (f *fakeDeliveries) GetOwnership(_ context.Context, id string) (*delivery.Ownership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	own, ok := f.byID[id]
	if !ok {
		return nil, delivery.ErrNotFound
	}
	return &own, nil
}

func (f *fakeDeliveries) CountByStatus(context.Context, delivery.Status) (int, error) { return 0, nil }
func (f *fakeDeliveries) CountActive(context.Context) (int, error)                    { return 0, nil }
func (f *fakeDeliveries) CountCreatedBetween(context.Context, time.Time, time.Time) (int, error) {
	return 0, nil
}

type fakeDriverState struct {
	mu        sync.Mutex
	upserts   []tracking.DriverPresence
	offline   []string
	upsertErr error
}

func (f *fakeDriverState) UpsertLocation(_ context.Context, p tracking.DriverPresence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, p)
	return nil
}

func (f *fakeDriverState) MarkOffline(_ context.Context, driverID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, driverID)
	return nil
}

func (f *fakeDriverState) CountOnline(context.Context) (int, error) { return 0, nil }
func (f *fakeDriverState) ListOnline(context.Context, int) ([]ports.DriverStateRow, error) {
	return nil, nil
}

func (f *fakeDriverState) offlineCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.offline...)
}

type fakeAudit struct {
	mu        sync.Mutex
	security  []string
	lifecycle []string
}

func (f *fakeAudit) InsertSecurityEvent(_ context.Context, userID, _, reason, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.security = append(f.security, userID+": "+reason)
	return nil
}

func (f *fakeAudit) InsertLifecycleEvent(_ context.Context, userID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lifecycle = append(f.lifecycle, userID)
	return nil
}

func (f *fakeAudit) RecentSecurityEvents(context.Context, int) ([]ports.AuditEventRow, error) {
	return nil, nil
}

func (f *fakeAudit) securityCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.security)
}

func (f *fakeAudit) lifecycleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lifecycle)
}

type fakePublisher struct {
	mu        sync.Mutex
	exchanges []string
}

func (f *fakePublisher) Publish(exchange, _ string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges = append(f.exchanges, exchange)
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	msgs   []any
	closed bool
}

func (f *fakeSender) Send(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

// ---- harness ----

type harness struct {
	svc         ports.TrackingService
	registry    *realtime.Registry
	rooms       *realtime.RoomRouter
	deliveries  *fakeDeliveries
	driverState *fakeDriverState
	audit       *fakeAudit
	pub         *fakePublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	deliveries := &fakeDeliveries{byID: make(map[string]delivery.Ownership)}
	driverState := &fakeDriverState{}
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	registry := realtime.NewRegistry()
	rooms := realtime.NewRoomRouter(registry)

	svc := NewTrackingService(
		logger.New("tracking-service-test"),
		fakeUOW{},
		deliveries,
		driverState,
		audit,
		registry,
		rooms,
		pub,
		nil,
	)
	return &harness{
		svc:         svc,
		registry:    registry,
		rooms:       rooms,
		deliveries:  deliveries,
		driverState: driverState,
		audit:       audit,
		pub:         pub,
	}
}

func driverConn(connID, driverID string) tracking.ConnectionContext {
	return tracking.ConnectionContext{
		ConnectionID: connID,
		UserID:       driverID,
		Role:         user.RoleDriver,
		ConnectedAt:  time.Now().UTC(),
	}
}

func customerConn(connID, customerID string) tracking.ConnectionContext {
	return tracking.ConnectionContext{
		ConnectionID: connID,
		UserID:       customerID,
		Role:         user.RoleCustomer,
		ConnectedAt:  time.Now().UTC(),
	}
}

func activeDelivery(id, customerID, driverID string) delivery.Ownership {
	return delivery.Ownership{
		DeliveryID: id,
		CustomerID: customerID,
		DriverID:   driverID,
		Status:     delivery.StatusInTransit,
	}
}

// ---- location updates ----

func TestLocationUpdateAcceptedAndBroadcast(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	// a watcher is in the room on another connection
	watcher := &fakeSender{}
	h.registry.Bind("conn-w", "cust-1", user.RoleCustomer, watcher)
	h.rooms.Join("del-1", "conn-w")

	res, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn: driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{
			Latitude: 12.97, Longitude: 77.59, Heading: 45, DeliveryID: "del-1",
		},
	})

	require.Nil(t, deny)
	assert.True(t, res.Broadcast)
	assert.Equal(t, "del-1", res.DeliveryID)

	// presence installed with the writing connection's id
	p, ok := h.registry.Driver("drv-1")
	require.True(t, ok)
	assert.Equal(t, "conn-d", p.ConnectionID)
	assert.Equal(t, 12.97, p.Latitude)
	assert.True(t, p.Verified)

	// exactly one frame to the watcher
	assert.Equal(t, 1, watcher.count())

	// state persisted
	h.driverState.mu.Lock()
	assert.Len(t, h.driverState.upserts, 1)
	h.driverState.mu.Unlock()
}

func TestLocationUpdateWrongDriverDenied(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	_, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn: driverConn("conn-x", "drv-other"),
		Update: tracking.LocationUpdate{
			Latitude: 12.97, Longitude: 77.59, DeliveryID: "del-1",
		},
	})

	require.NotNil(t, deny)
	assert.Equal(t, tracking.DenyUnauthorized, deny.Kind)

	// no registry mutation
	_, ok := h.registry.Driver("drv-other")
	assert.False(t, ok)

	// exactly one security event, recorded asynchronously
	require.Eventually(t, func() bool { return h.audit.securityCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestLocationUpdateUnknownDeliveryNotFound(t *testing.T) {
	h := newHarness(t)

	_, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn: driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{
			Latitude: 1, Longitude: 1, DeliveryID: "nope",
		},
	})

	require.NotNil(t, deny)
	assert.Equal(t, tracking.DenyNotFound, deny.Kind)
	assert.Equal(t, 0, h.audit.securityCount())
}

func TestLocationUpdateWithoutDeliverySkipsBroadcast(t *testing.T) {
	h := newHarness(t)

	res, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 10, Longitude: 20},
	})

	require.Nil(t, deny)
	assert.False(t, res.Broadcast)

	p, ok := h.registry.Driver("drv-1")
	require.True(t, ok)
	assert.False(t, p.Verified)
}

func TestLocationUpdatePersistFailureKeepsLiveState(t *testing.T) {
	h := newHarness(t)
	h.driverState.upsertErr = errors.New("db down")

	res, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 10, Longitude: 20},
	})

	// the write failed but the live update is kept and reported as success
	require.Nil(t, deny)
	assert.Equal(t, "drv-1", res.DriverID)

	_, ok := h.registry.Driver("drv-1")
	assert.True(t, ok)
}

func TestLocationUpdateLookupFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	h.deliveries.err = errors.New("db down")

	_, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 1, Longitude: 1, DeliveryID: "del-1"},
	})

	require.NotNil(t, deny)
	assert.Equal(t, tracking.DenyInvalidState, deny.Kind)
	assert.True(t, deny.Retryable)
}

// ---- tracking subscriptions ----

func TestTrackDeliveryByCustomer(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	res, deny := h.svc.HandleTrackDelivery(context.Background(), ports.TrackInput{
		Conn:       customerConn("conn-c", "cust-1"),
		DeliveryID: "del-1",
	})

	require.Nil(t, deny)
	assert.Equal(t, "IN_TRANSIT", res.Status)
	assert.Equal(t, 1, res.Watchers)
	assert.Equal(t, 1, h.rooms.MemberCount("del-1"))
}

func TestTrackDeliveryByStrangerDeniedAndAudited(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	_, deny := h.svc.HandleTrackDelivery(context.Background(), ports.TrackInput{
		Conn:       customerConn("conn-s", "stranger"),
		DeliveryID: "del-1",
	})

	require.NotNil(t, deny)
	assert.Equal(t, tracking.DenyUnauthorized, deny.Kind)
	assert.Equal(t, 0, h.rooms.MemberCount("del-1"))
	require.Eventually(t, func() bool { return h.audit.securityCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestTrackDeliveryByAdminAllowed(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	_, deny := h.svc.HandleTrackDelivery(context.Background(), ports.TrackInput{
		Conn: tracking.ConnectionContext{
			ConnectionID: "conn-a", UserID: "admin-1", Role: user.RoleAdmin, ConnectedAt: time.Now(),
		},
		DeliveryID: "del-1",
	})

	require.Nil(t, deny)
	assert.Equal(t, 1, h.rooms.MemberCount("del-1"))
}

func TestStopTrackingLeavesRoom(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	_, deny := h.svc.HandleTrackDelivery(context.Background(), ports.TrackInput{
		Conn:       customerConn("conn-c", "cust-1"),
		DeliveryID: "del-1",
	})
	require.Nil(t, deny)

	h.svc.HandleStopTracking(context.Background(), ports.StopTrackingInput{
		Conn:       customerConn("conn-c", "cust-1"),
		DeliveryID: "del-1",
	})
	assert.Equal(t, 0, h.rooms.MemberCount("del-1"))

	// leaving again, or a room never joined, is a no-op
	h.svc.HandleStopTracking(context.Background(), ports.StopTrackingInput{
		Conn:       customerConn("conn-c", "cust-1"),
		DeliveryID: "del-1",
	})
}

// ---- disconnect ----

func TestDisconnectDriverCleansUpAndMarksOffline(t *testing.T) {
	h := newHarness(t)
	sender := &fakeSender{}
	h.registry.Bind("conn-d", "drv-1", user.RoleDriver, sender)

	_, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-d", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 10, Longitude: 20},
	})
	require.Nil(t, deny)

	h.svc.Disconnect(context.Background(), driverConn("conn-d", "drv-1"))

	_, ok := h.registry.Driver("drv-1")
	assert.False(t, ok, "presence must be evicted")
	assert.Equal(t, 0, h.registry.ConnectionCount())
	assert.Equal(t, []string{"drv-1"}, h.driverState.offlineCalls())
	require.Eventually(t, func() bool { return h.audit.lifecycleCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestStaleDisconnectKeepsNewerPresence(t *testing.T) {
	h := newHarness(t)

	// old connection writes presence, then a newer connection overwrites it
	_, deny := h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-old", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 1, Longitude: 1},
	})
	require.Nil(t, deny)
	_, deny = h.svc.HandleLocationUpdate(context.Background(), ports.LocationUpdateInput{
		Conn:   driverConn("conn-new", "drv-1"),
		Update: tracking.LocationUpdate{Latitude: 2, Longitude: 2},
	})
	require.Nil(t, deny)

	// the superseded connection's cleanup fires late
	h.svc.Disconnect(context.Background(), driverConn("conn-old", "drv-1"))

	p, ok := h.registry.Driver("drv-1")
	require.True(t, ok, "newer presence must survive the stale disconnect")
	assert.Equal(t, "conn-new", p.ConnectionID)
	assert.Empty(t, h.driverState.offlineCalls(), "no offline write from a stale disconnect")
}

func TestDisconnectCustomerLeavesRooms(t *testing.T) {
	h := newHarness(t)
	h.deliveries.byID["del-1"] = activeDelivery("del-1", "cust-1", "drv-1")

	_, deny := h.svc.HandleTrackDelivery(context.Background(), ports.TrackInput{
		Conn:       customerConn("conn-c", "cust-1"),
		DeliveryID: "del-1",
	})
	require.Nil(t, deny)

	h.svc.Disconnect(context.Background(), customerConn("conn-c", "cust-1"))

	assert.Equal(t, 0, h.rooms.MemberCount("del-1"))
	assert.Empty(t, h.driverState.offlineCalls())
}

// ---- fare quotes ----

func TestQuoteFareWithExplicitDistance(t *testing.T) {
	h := newHarness(t)
	dist := 5.0

	out, err := h.svc.QuoteFare(context.Background(), ports.FareQuoteInput{
		DistanceKM:      &dist,
		VehicleType:     "bike",
		DurationMinutes: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, out.TotalFare, out.DriverEarnings+out.PlatformCommission)
	assert.Equal(t, 15, out.EstimatedMinutes)
}

func TestQuoteFareDistanceFromCoordinates(t *testing.T) {
	h := newHarness(t)

	out, err := h.svc.QuoteFare(context.Background(), ports.FareQuoteInput{
		PickupLatitude: 12.97, PickupLongitude: 77.59,
		DropLatitude: 13.03, DropLongitude: 77.62,
		VehicleType: "auto",
	})
	require.NoError(t, err)
	assert.Greater(t, out.TotalFare, 0.0)
	assert.Greater(t, out.EstimatedMinutes, 0)
}

func TestQuoteFareRejectsNegativeDistance(t *testing.T) {
	h := newHarness(t)
	dist := -1.0

	_, err := h.svc.QuoteFare(context.Background(), ports.FareQuoteInput{
		DistanceKM:  &dist,
		VehicleType: "bike",
	})
	assert.Error(t, err)
}

func TestQuoteFareRejectsBadCoordinates(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.QuoteFare(context.Background(), ports.FareQuoteInput{
		PickupLatitude: 91, PickupLongitude: 0,
		DropLatitude: 0, DropLongitude: 0,
		VehicleType: "bike",
	})
	assert.Error(t, err)
}
