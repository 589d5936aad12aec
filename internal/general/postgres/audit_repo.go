package postgres

import (
	"context"
	"fmt"
	"time"

	"courier-track/internal/ports"
)

// AuditRepo appends security and lifecycle events using pgx and plain SQL.
type AuditRepo struct{}

// NewAuditRepo constructs a new AuditRepo.
func NewAuditRepo() ports.AuditRepository {
	return &AuditRepo{}
}

// InsertSecurityEvent records a denied operation for later review.
func (repo *AuditRepo) InsertSecurityEvent(ctx context.Context, userID, deliveryID, reason, details string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var delivery *string
	if deliveryID != "" {
		delivery = &deliveryID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_events (kind, user_id, delivery_id, reason, details, created_at)
		VALUES ('security', $1, $2, $3, $4, $5)
	`, userID, delivery, reason, details, at)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// InsertLifecycleEvent records a connection open/close for operations visibility.
func (repo *AuditRepo) InsertLifecycleEvent(ctx context.Context, userID, details string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_events (kind, user_id, details, created_at)
		VALUES ('lifecycle', $1, $2, $3)
	`, userID, details, at)
	if err != nil {
		return fmt.Errorf("insert lifecycle event: %w", err)
	}
	return nil
}

// RecentSecurityEvents returns the newest security events, newest first.
func (repo *AuditRepo) RecentSecurityEvents(ctx context.Context, limit int) ([]ports.AuditEventRow, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT id, kind, COALESCE(user_id, ''), COALESCE(delivery_id, ''),
		       COALESCE(reason, ''), COALESCE(details, ''), created_at
		FROM audit_events
		WHERE kind = 'security'
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	defer rows.Close()

	var out []ports.AuditEventRow
	for rows.Next() {
		var r ports.AuditEventRow
		if err := rows.Scan(&r.ID, &r.Kind, &r.UserID, &r.DeliveryID, &r.Reason, &r.Details, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}
	return out, nil
}
