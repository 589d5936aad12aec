package ports

import (
	"context"
	"time"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DeliveryRepository defines read access to delivery ownership and counts.
type DeliveryRepository interface {
	GetOwnership(ctx context.Context, deliveryID string) (*delivery.Ownership, error)
	CountByStatus(ctx context.Context, status delivery.Status) (int, error)
	CountActive(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
}

// DriverStateRow is one persisted driver-state record.
type DriverStateRow struct {
	DriverID   string    `json:"driver_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Heading    float64   `json:"heading_degrees"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Online     bool      `json:"online"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// DriverStateRepository persists the last known state of each driver.
type DriverStateRepository interface {
	UpsertLocation(ctx context.Context, p tracking.DriverPresence) error
	MarkOffline(ctx context.Context, driverID string, at time.Time) error
	CountOnline(ctx context.Context) (int, error)
	ListOnline(ctx context.Context, limit int) ([]DriverStateRow, error)
}

// AuditEventRow is one persisted audit record.
type AuditEventRow struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "security" | "lifecycle"
	UserID     string    `json:"user_id,omitempty"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditRepository appends security and connection-lifecycle events.
type AuditRepository interface {
	InsertSecurityEvent(ctx context.Context, userID, deliveryID, reason, details string, at time.Time) error
	InsertLifecycleEvent(ctx context.Context, userID, details string, at time.Time) error
	RecentSecurityEvents(ctx context.Context, limit int) ([]AuditEventRow, error)
}
