package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/general/contracts"

	"github.com/gorilla/websocket"
)

// wsSender wraps one connection with a write mutex so the read-loop handlers,
// the ping loop and room broadcasts never interleave frames. It is the
// realtime.Sender the registry holds for this connection.
type wsSender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send marshals v and writes a single TextMessage.
func (s *wsSender) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close sends a close frame and tears the socket down. Called by the registry
// when a newer login supersedes this connection; the blocked read loop exits.
func (s *wsSender) Close() error {
	s.writeClose(websocket.ClosePolicyViolation, "superseded by a newer connection")
	return s.conn.Close()
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
}

// writeClose sends a close control frame with the given code and reason.
func (s *wsSender) writeClose(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// errorFrame builds the uniform outbound error message.
func errorFrame(kind tracking.DenyKind, msg string, retryable bool) contracts.WSError {
	return contracts.WSError{
		Type:      "error",
		Code:      string(kind),
		Error:     msg,
		Retryable: retryable,
	}
}

// rateLimitedFrame is sent when an event exceeds its per-connection window.
// The event itself is dropped; the connection stays open.
func rateLimitedFrame() contracts.WSError {
	return contracts.WSError{
		Type:      "error",
		Code:      "rate-limited",
		Error:     "too many events, slow down",
		Retryable: true,
	}
}

// sendAuthError writes an auth failure directly on a not-yet-registered
// connection (there is no sender bound at this point).
func (g *Gateway) sendAuthError(conn *websocket.Conn, message string) error {
	payload, err := json.Marshal(map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// sendAuthSuccess confirms authentication and reports the connection id the
// client can use for support/debugging.
func (g *Gateway) sendAuthSuccess(sender *wsSender, cc *tracking.ConnectionContext) error {
	return sender.Send(map[string]any{
		"type":          "auth_success",
		"message":       "Authentication successful",
		"success":       true,
		"connection_id": cc.ConnectionID,
		"user_id":       cc.UserID,
		"role":          cc.Role.String(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
