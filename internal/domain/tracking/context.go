package tracking

import (
	"errors"
	"strings"
	"time"

	"courier-track/internal/domain/user"
)

// ConnectionContext is the immutable identity attached to a live transport
// connection once authentication succeeds. It is created exactly once per
// connection and never mutated afterwards.
type ConnectionContext struct {
	ConnectionID string
	UserID       string
	Role         user.Role
	RemoteIP     string
	UserAgent    string
	ConnectedAt  time.Time
}

var (
	ErrConnectionIDRequired = errors.New("connection id is required")
	ErrUserIDRequired       = errors.New("user id is required")
)

// NewConnectionContext validates and constructs a ConnectionContext.
func NewConnectionContext(connectionID, userID string, role user.Role, remoteIP, userAgent string, connectedAt time.Time) (*ConnectionContext, error) {
	if connectionID = strings.TrimSpace(connectionID); connectionID == "" {
		return nil, ErrConnectionIDRequired
	}
	if userID = strings.TrimSpace(userID); userID == "" {
		return nil, ErrUserIDRequired
	}
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}

	return &ConnectionContext{
		ConnectionID: connectionID,
		UserID:       userID,
		Role:         role,
		RemoteIP:     remoteIP,
		UserAgent:    userAgent,
		ConnectedAt:  connectedAt.UTC(),
	}, nil
}

// Duration returns how long the connection has been (or was) open at the given instant.
func (cc *ConnectionContext) Duration(now time.Time) time.Duration {
	return now.UTC().Sub(cc.ConnectedAt)
}
