package jwt

import (
	"encoding/json"
	"errors"

	"courier-track/internal/domain/user"
)

// wsAuthFrame is the first message a client must send after the websocket
// upgrade: {"type":"auth","token":"Bearer <jwt>"}.
type wsAuthFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

var ErrBadAuthFrame = errors.New("first frame must be an auth message with a bearer token")

// ValidateWSAuth parses a raw first websocket frame and returns the
// authenticated claims, or an error the gateway reports before closing.
func (m *Manager) ValidateWSAuth(frame []byte, allowed ...user.Role) (*Claims, error) {
	var msg wsAuthFrame
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, ErrBadAuthFrame
	}
	if msg.Type != "auth" || msg.Token == "" {
		return nil, ErrBadAuthFrame
	}
	claims, err := m.FromAuthorization(msg.Token)
	if err != nil {
		return nil, err
	}
	if !RoleAllowed(claims, allowed...) {
		return nil, ErrForbiddenRole
	}
	return claims, nil
}
