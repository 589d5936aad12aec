package ports

import (
	"context"
	"time"

	"courier-track/internal/domain/fare"
	"courier-track/internal/domain/tracking"
)

// ----- DTOs for Tracking Service -----

// LocationUpdateInput is a driver's inbound location event, already bound to
// the authenticated connection.
type LocationUpdateInput struct {
	Conn   tracking.ConnectionContext
	Update tracking.LocationUpdate
}

// LocationUpdateResult confirms an accepted location update.
type LocationUpdateResult struct {
	DriverID   string    `json:"driver_id"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Broadcast  bool      `json:"broadcast"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TrackInput is a watcher's request to join a delivery room.
type TrackInput struct {
	Conn       tracking.ConnectionContext
	DeliveryID string
}

// TrackResult confirms room membership.
type TrackResult struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
	Watchers   int    `json:"watchers"`
}

// StopTrackingInput is a watcher's request to leave a delivery room.
type StopTrackingInput struct {
	Conn       tracking.ConnectionContext
	DeliveryID string
}

// FareQuoteInput is the validated input for POST /fare/quote.
type FareQuoteInput struct {
	DistanceKM      *float64 `json:"distance_km,omitempty"`
	PickupLatitude  float64  `json:"pickup_latitude"`
	PickupLongitude float64  `json:"pickup_longitude"`
	DropLatitude    float64  `json:"drop_latitude"`
	DropLongitude   float64  `json:"drop_longitude"`
	VehicleType     string   `json:"vehicle_type"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

// MessagePublisher is the broker-facing side of the tracking service.
// Satisfied by rabbitmq.MQPublisher; tests substitute fakes.
type MessagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ----- Tracking Service Interface -----

// TrackingService exposes the boundary for the real-time tracking service.
type TrackingService interface {
	HandleLocationUpdate(ctx context.Context, in LocationUpdateInput) (LocationUpdateResult, *tracking.Denial)
	HandleTrackDelivery(ctx context.Context, in TrackInput) (TrackResult, *tracking.Denial)
	HandleStopTracking(ctx context.Context, in StopTrackingInput)
	Disconnect(ctx context.Context, conn tracking.ConnectionContext)
	QuoteFare(ctx context.Context, in FareQuoteInput) (fare.Breakdown, error)
	RunBackgroundConsumers(ctx context.Context)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Admin Dashboard -----

// OverviewMetrics groups all numeric KPIs for the overview.
type OverviewMetrics struct {
	OnlineDrivers        int `json:"online_drivers"`
	ActiveConnections    int `json:"active_connections"`
	ActiveDeliveries     int `json:"active_deliveries"`
	WatchedDeliveries    int `json:"watched_deliveries"`
	DeliveriesToday      int `json:"deliveries_today"`
	TrackedDriversInMem  int `json:"tracked_drivers_in_memory"`
	PersistedOnlineCount int `json:"persisted_online_count"`
}

// SystemOverviewResult is the top-level response DTO for GET /admin/overview.
type SystemOverviewResult struct {
	Timestamp time.Time       `json:"timestamp"`
	Metrics   OverviewMetrics `json:"metrics"`
}

// OnlineDriversResult is the response DTO for GET /admin/drivers/online.
type OnlineDriversResult struct {
	Drivers    []DriverStateRow `json:"drivers"`
	TotalCount int              `json:"total_count"`
}

// SecurityEventsResult is the response DTO for GET /admin/security-events.
type SecurityEventsResult struct {
	Events     []AuditEventRow `json:"events"`
	TotalCount int             `json:"total_count"`
}

// ----- Admin Service Interface -----

// AdminService exposes monitoring operations for administrators.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverviewResult, error)
	GetOnlineDrivers(ctx context.Context, limit string) (OnlineDriversResult, error)
	GetSecurityEvents(ctx context.Context, limit string) (SecurityEventsResult, error)
}
