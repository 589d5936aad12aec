package websocket

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/general/jwt"
	"courier-track/internal/general/logger"
	"courier-track/internal/general/realtime"
	"courier-track/internal/ports"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second

	authWindow = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway owns the WebSocket endpoint: upgrade, first-frame JWT auth,
// keepalive and per-event dispatch into the tracking service.
type Gateway struct {
	logger   *logger.Logger
	jwtMgr   *jwt.Manager
	svc      ports.TrackingService
	registry *realtime.Registry
	limiter  *realtime.EventLimiter

	locationLimit int
	trackLimit    int
}

// NewGateway creates a Gateway wired to the tracking service and registry.
// Limits are per connection per minute; zero means unlimited.
func NewGateway(logger *logger.Logger, jwtMgr *jwt.Manager, svc ports.TrackingService, registry *realtime.Registry, locationLimit, trackLimit int) *Gateway {
	return &Gateway{
		logger:        logger,
		jwtMgr:        jwtMgr,
		svc:           svc,
		registry:      registry,
		limiter:       realtime.NewEventLimiter(),
		locationLimit: locationLimit,
		trackLimit:    trackLimit,
	}
}

// Connect handles GET /ws for every role. The connection is anonymous until
// the client sends its auth frame within the auth window.
func (g *Gateway) Connect(w http.ResponseWriter, r *http.Request) {
	// 1) Upgrade HTTP -> WS
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()

	// 2) Bound the unauthenticated window
	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(authWindow)); err != nil {
		g.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		g.sendAuthError(conn, "internal server error")
		return
	}

	// 3) First frame must be the auth message
	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			g.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			g.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		g.sendAuthError(conn, "authentication timeout: please send auth message within 5 seconds")
		return
	}
	if msgType != websocket.TextMessage {
		g.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		g.sendAuthError(conn, "auth message must be in text format")
		return
	}

	claims, err := g.jwtMgr.ValidateWSAuth(firstFrame)
	if err != nil {
		g.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		g.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	// 4) Build the immutable per-connection identity
	remoteIP := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		remoteIP = host
	}
	cc, err := tracking.NewConnectionContext(
		uuid.NewString(),
		claims.Subject,
		claims.Role,
		remoteIP,
		r.UserAgent(),
		time.Now().UTC(),
	)
	if err != nil {
		g.logger.Error(r.Context(), "ws_context_invalid", "Failed to build connection context", err, nil)
		g.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	// 5) Confirm auth to the client
	sender := &wsSender{conn: conn}
	if err := g.sendAuthSuccess(sender, cc); err != nil {
		g.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	g.logger.Info(r.Context(), "ws_connected", "WebSocket connected", map[string]any{
		"connection_id": cc.ConnectionID,
		"user_id":       cc.UserID,
		"role":          cc.Role.String(),
		"remote_ip":     cc.RemoteIP,
	})

	// 6) Register the connection; a second login by the same user supersedes
	// the first and closes its socket, unblocking that read loop.
	g.registry.Bind(cc.ConnectionID, cc.UserID, cc.Role, sender)

	// 7) Cleanup runs exactly once, after the read loop exits. The service is
	// the single place that untangles registry, rooms and persisted state.
	defer func() {
		g.svc.Disconnect(r.Context(), *cc)
		g.limiter.Forget(cc.ConnectionID)
	}()

	// 8) Keepalive: reset deadline on pong, ping on a fixed cadence
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := sender.ping(); err != nil {
					// Close socket to unblock reader; goroutine exits.
					_ = conn.Close()
					g.logger.Error(r.Context(), "ws_ping_failed", "Failed to send ping", err, map[string]any{
						"connection_id": cc.ConnectionID,
					})
					return
				}
			}
		}
	}()

	// 9) Read loop: one connection's events are handled strictly in order
	for {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Error(r.Context(), "ws_unexpected_close", "Connection closed unexpectedly", err, map[string]any{
					"connection_id": cc.ConnectionID, "user_id": cc.UserID,
				})
				sender.writeClose(websocket.CloseInternalServerErr, "internal error")
			} else {
				g.logger.Info(r.Context(), "ws_connection_closed", "Connection closed normally", map[string]any{
					"connection_id": cc.ConnectionID, "user_id": cc.UserID,
				})
				sender.writeClose(websocket.CloseNormalClosure, "bye")
			}
			break
		}

		// Minimal envelope
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = sender.Send(errorFrame(tracking.DenyMalformedInput, "bad json", false))
			continue
		}

		g.dispatch(r, sender, cc, msg.Type, msg.Data)
	}
}

// dispatch routes one inbound event: rate limit first, then the service. The
// service performs authorization and reports refusals as structured denials.
func (g *Gateway) dispatch(r *http.Request, sender *wsSender, cc *tracking.ConnectionContext, eventType string, data json.RawMessage) {
	switch eventType {
	case "driver-location-update":
		if !g.limiter.Allow(cc.ConnectionID, eventType, g.locationLimit, time.Minute) {
			_ = sender.Send(rateLimitedFrame())
			return
		}
		g.handleLocationUpdate(r, sender, cc, data)

	case "track-delivery":
		if !g.limiter.Allow(cc.ConnectionID, eventType, g.trackLimit, time.Minute) {
			_ = sender.Send(rateLimitedFrame())
			return
		}
		g.handleTrackDelivery(r, sender, cc, data)

	case "stop-tracking":
		// no rate limit: leaving a room is always allowed
		g.handleStopTracking(r, sender, cc, data)

	default:
		_ = sender.Send(errorFrame(tracking.DenyMalformedInput, "unknown message type", false))
	}
}

func (g *Gateway) handleLocationUpdate(r *http.Request, sender *wsSender, cc *tracking.ConnectionContext, data json.RawMessage) {
	var p struct {
		Latitude       float64 `json:"latitude"`
		Longitude      float64 `json:"longitude"`
		HeadingDegrees float64 `json:"heading_degrees"`
		DeliveryID     string  `json:"delivery_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		g.logger.Error(r.Context(), "ws_bad_payload", "Failed to decode location update payload", err, map[string]any{
			"connection_id": cc.ConnectionID,
		})
		_ = sender.Send(errorFrame(tracking.DenyMalformedInput, "bad driver-location-update payload", false))
		return
	}

	res, deny := g.svc.HandleLocationUpdate(r.Context(), ports.LocationUpdateInput{
		Conn: *cc,
		Update: tracking.LocationUpdate{
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			Heading:    p.HeadingDegrees,
			DeliveryID: p.DeliveryID,
		},
	})
	if deny != nil {
		_ = sender.Send(errorFrame(deny.Kind, deny.Message, deny.Retryable))
		return
	}

	_ = sender.Send(map[string]any{
		"type":        "driver-location-update_ack",
		"delivery_id": res.DeliveryID,
		"broadcast":   res.Broadcast,
		"sent_at":     res.UpdatedAt,
	})
}

func (g *Gateway) handleTrackDelivery(r *http.Request, sender *wsSender, cc *tracking.ConnectionContext, data json.RawMessage) {
	var p struct {
		DeliveryID string `json:"delivery_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		_ = sender.Send(errorFrame(tracking.DenyMalformedInput, "bad track-delivery payload", false))
		return
	}

	res, deny := g.svc.HandleTrackDelivery(r.Context(), ports.TrackInput{Conn: *cc, DeliveryID: p.DeliveryID})
	if deny != nil {
		_ = sender.Send(errorFrame(deny.Kind, deny.Message, deny.Retryable))
		return
	}

	_ = sender.Send(map[string]any{
		"type":        "track-delivery_ack",
		"delivery_id": res.DeliveryID,
		"status":      res.Status,
		"watchers":    res.Watchers,
	})
}

func (g *Gateway) handleStopTracking(r *http.Request, sender *wsSender, cc *tracking.ConnectionContext, data json.RawMessage) {
	var p struct {
		DeliveryID string `json:"delivery_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		_ = sender.Send(errorFrame(tracking.DenyMalformedInput, "bad stop-tracking payload", false))
		return
	}

	g.svc.HandleStopTracking(r.Context(), ports.StopTrackingInput{Conn: *cc, DeliveryID: p.DeliveryID})

	_ = sender.Send(map[string]any{
		"type":        "stop-tracking_ack",
		"delivery_id": p.DeliveryID,
		"sent_at":     time.Now().UTC(),
	})
}
