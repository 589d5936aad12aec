package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/ports"

	"github.com/jackc/pgx/v5"
)

// DeliveryRepo reads delivery data using pgx and plain SQL.
type DeliveryRepo struct{}

// NewDeliveryRepo constructs a new DeliveryRepo.
func NewDeliveryRepo() ports.DeliveryRepository {
	return &DeliveryRepo{}
}

// GetOwnership loads the ownership view of a delivery: who ordered it, who
// drives it and its current status.
func (repo *DeliveryRepo) GetOwnership(ctx context.Context, deliveryID string) (*delivery.Ownership, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if deliveryID == "" {
		return nil, errors.New("deliveryID cannot be empty")
	}

	var (
		own      delivery.Ownership
		driverID *string
		status   string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, driver_id, status
		FROM deliveries
		WHERE id = $1
	`, deliveryID).Scan(&own.DeliveryID, &own.CustomerID, &driverID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, delivery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query delivery ownership: %w", err)
	}

	if driverID != nil {
		own.DriverID = *driverID
	}
	own.Status, err = delivery.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("delivery %s has unknown status %q: %w", deliveryID, status, err)
	}
	return &own, nil
}

// CountByStatus returns the number of deliveries currently in the given status.
func (repo *DeliveryRepo) CountByStatus(ctx context.Context, status delivery.Status) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM deliveries WHERE status = $1
	`, status.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deliveries by status: %w", err)
	}
	return n, nil
}

// CountActive returns the number of deliveries in an active (trackable) status.
func (repo *DeliveryRepo) CountActive(ctx context.Context) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM deliveries
		WHERE status IN ('ACCEPTED', 'PICKED_UP', 'IN_TRANSIT')
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active deliveries: %w", err)
	}
	return n, nil
}

// CountCreatedBetween returns the number of deliveries created in [start, end).
func (repo *DeliveryRepo) CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM deliveries
		WHERE created_at >= $1 AND created_at < $2
	`, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deliveries created between: %w", err)
	}
	return n, nil
}
