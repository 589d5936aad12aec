package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
	"courier-track/internal/domain/user"
	"courier-track/internal/general/logger"
	"courier-track/internal/general/realtime"
	"courier-track/internal/ports"
)

// ----- fakes -----

type fakeUOW struct{}

func (fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDeliveries struct {
	active int
	today  int
	err    error
}

func (f *fakeDeliveries) GetOwnership(context.Context, string) (*delivery.Ownership, error) {
	return nil, delivery.ErrNotFound
}
func (f *fakeDeliveries) CountByStatus(context.Context, delivery.Status) (int, error) {
	return 0, f.err
}
func (f *fakeDeliveries) CountActive(context.Context) (int, error) { return f.active, f.err }
func (f *fakeDeliveries) CountCreatedBetween(_ context.Context, start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, errors.New("bad window")
	}
	return f.today, f.err
}

type fakeDriverState struct {
	online int
	rows   []ports.DriverStateRow
	gotN   int
}

func (f *fakeDriverState) UpsertLocation(context.Context, tracking.DriverPresence) error { return nil }
func (f *fakeDriverState) MarkOffline(context.Context, string, time.Time) error          { return nil }
func (f *fakeDriverState) CountOnline(context.Context) (int, error)                      { return f.online, nil }
func (f *fakeDriverState) ListOnline(_ context.Context, limit int) ([]ports.DriverStateRow, error) {
	f.gotN = limit
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

type fakeAudit struct {
	events []ports.AuditEventRow
	gotN   int
}

func (f *fakeAudit) InsertSecurityEvent(context.Context, string, string, string, string, time.Time) error {
	return nil
}
func (f *fakeAudit) InsertLifecycleEvent(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeAudit) RecentSecurityEvents(_ context.Context, limit int) ([]ports.AuditEventRow, error) {
	f.gotN = limit
	return f.events, nil
}

type nopSender struct{}

func (nopSender) Send(any) error { return nil }
func (nopSender) Close() error   { return nil }

func newTestService(deliveries *fakeDeliveries, drivers *fakeDriverState, audit *fakeAudit) (ports.AdminService, *realtime.Registry, *realtime.RoomRouter) {
	registry := realtime.NewRegistry()
	rooms := realtime.NewRoomRouter(registry)
	svc := NewAdminService(logger.New("admin-service-test"), fakeUOW{}, deliveries, drivers, audit, registry, rooms)
	return svc, registry, rooms
}

// ----- tests -----

func TestGetSystemOverview_CombinesPersistedAndLiveCounters(t *testing.T) {
	deliveries := &fakeDeliveries{active: 7, today: 12}
	drivers := &fakeDriverState{online: 4}
	svc, registry, rooms := newTestService(deliveries, drivers, &fakeAudit{})

	registry.Bind("conn-1", "drv-1", user.RoleDriver, nopSender{})
	registry.Bind("conn-2", "cus-1", user.RoleCustomer, nopSender{})
	registry.UpsertDriver(tracking.DriverPresence{DriverID: "drv-1", ConnectionID: "conn-1"})
	rooms.Join("del-1", "conn-2")

	result, err := svc.GetSystemOverview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, result.Metrics.ActiveDeliveries)
	assert.Equal(t, 12, result.Metrics.DeliveriesToday)
	assert.Equal(t, 4, result.Metrics.PersistedOnlineCount)
	assert.Equal(t, 1, result.Metrics.OnlineDrivers)
	assert.Equal(t, 1, result.Metrics.TrackedDriversInMem)
	assert.Equal(t, 2, result.Metrics.ActiveConnections)
	assert.Equal(t, 1, result.Metrics.WatchedDeliveries)
	assert.WithinDuration(t, time.Now().UTC(), result.Timestamp, 5*time.Second)
}

func TestGetSystemOverview_PropagatesStorageError(t *testing.T) {
	deliveries := &fakeDeliveries{err: errors.New("pg down")}
	svc, _, _ := newTestService(deliveries, &fakeDriverState{}, &fakeAudit{})

	_, err := svc.GetSystemOverview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count active deliveries")
}

func TestGetOnlineDrivers_LimitParsing(t *testing.T) {
	drivers := &fakeDriverState{rows: []ports.DriverStateRow{
		{DriverID: "drv-1", Online: true},
		{DriverID: "drv-2", Online: true},
	}}
	svc, _, _ := newTestService(&fakeDeliveries{}, drivers, &fakeAudit{})

	result, err := svc.GetOnlineDrivers(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, defaultDriverListLimit, drivers.gotN)
	assert.Equal(t, 2, result.TotalCount)

	_, err = svc.GetOnlineDrivers(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, drivers.gotN)

	_, err = svc.GetOnlineDrivers(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Equal(t, defaultDriverListLimit, drivers.gotN)

	_, err = svc.GetOnlineDrivers(context.Background(), "99999")
	require.NoError(t, err)
	assert.Equal(t, maxDriverListLimit, drivers.gotN)
}

func TestGetOnlineDrivers_EmptyListIsNotNil(t *testing.T) {
	svc, _, _ := newTestService(&fakeDeliveries{}, &fakeDriverState{}, &fakeAudit{})

	result, err := svc.GetOnlineDrivers(context.Background(), "10")
	require.NoError(t, err)
	assert.NotNil(t, result.Drivers)
	assert.Zero(t, result.TotalCount)
}

func TestGetSecurityEvents_ReturnsRecentRows(t *testing.T) {
	audit := &fakeAudit{events: []ports.AuditEventRow{
		{ID: "evt-1", Kind: "security", UserID: "drv-2", DeliveryID: "del-1", Reason: "location update rejected"},
	}}
	svc, _, _ := newTestService(&fakeDeliveries{}, &fakeDriverState{}, audit)

	result, err := svc.GetSecurityEvents(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, defaultSecurityEventLimit, audit.gotN)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "drv-2", result.Events[0].UserID)
	assert.Equal(t, 1, result.TotalCount)
}
