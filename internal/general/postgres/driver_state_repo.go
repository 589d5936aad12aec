package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/ports"
)

// DriverStateRepo persists last known driver state using pgx and plain SQL.
type DriverStateRepo struct{}

// NewDriverStateRepo constructs a new DriverStateRepo.
func NewDriverStateRepo() ports.DriverStateRepository {
	return &DriverStateRepo{}
}

// UpsertLocation writes the driver's latest position and marks them online.
func (repo *DriverStateRepo) UpsertLocation(ctx context.Context, p tracking.DriverPresence) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if p.DriverID == "" {
		return errors.New("driverID cannot be empty")
	}

	var deliveryID *string
	if p.DeliveryID != "" {
		deliveryID = &p.DeliveryID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO driver_state (
			driver_id, latitude, longitude, heading_degrees,
			delivery_id, online, last_seen_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, true, $6, now())
		ON CONFLICT (driver_id) DO UPDATE SET
			latitude        = EXCLUDED.latitude,
			longitude       = EXCLUDED.longitude,
			heading_degrees = EXCLUDED.heading_degrees,
			delivery_id     = EXCLUDED.delivery_id,
			online          = true,
			last_seen_at    = EXCLUDED.last_seen_at,
			updated_at      = now()
	`, p.DriverID, p.Latitude, p.Longitude, p.Heading, deliveryID, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert driver state: %w", err)
	}
	return nil
}

// MarkOffline flips the driver's online flag without touching the last
// recorded position.
func (repo *DriverStateRepo) MarkOffline(ctx context.Context, driverID string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if driverID == "" {
		return errors.New("driverID cannot be empty")
	}

	_, err = tx.Exec(ctx, `
		UPDATE driver_state
		SET online = false, last_seen_at = $2, updated_at = now()
		WHERE driver_id = $1
	`, driverID, at)
	if err != nil {
		return fmt.Errorf("mark driver offline: %w", err)
	}
	return nil
}

// CountOnline returns the number of drivers marked online.
func (repo *DriverStateRepo) CountOnline(ctx context.Context) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM driver_state WHERE online = true
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count online drivers: %w", err)
	}
	return n, nil
}

// ListOnline returns up to limit online drivers, most recently seen first.
func (repo *DriverStateRepo) ListOnline(ctx context.Context, limit int) ([]ports.DriverStateRow, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT driver_id, latitude, longitude, heading_degrees,
		       COALESCE(delivery_id, ''), online, last_seen_at
		FROM driver_state
		WHERE online = true
		ORDER BY last_seen_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list online drivers: %w", err)
	}
	defer rows.Close()

	var out []ports.DriverStateRow
	for rows.Next() {
		var r ports.DriverStateRow
		if err := rows.Scan(&r.DriverID, &r.Latitude, &r.Longitude, &r.Heading, &r.DeliveryID, &r.Online, &r.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan driver state row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate driver state rows: %w", err)
	}
	return out, nil
}
