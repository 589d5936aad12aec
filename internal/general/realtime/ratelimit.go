package realtime

import (
	"sync"
	"time"
)

type windowKey struct {
	connectionID string
	eventType    string
}

type rateWindow struct {
	start time.Time
	count int
}

// EventLimiter is a fixed-window counter per (connection id, event type).
// Limits differ per event type and are supplied by the caller on every check;
// the limiter itself only owns the window state.
type EventLimiter struct {
	mu      sync.Mutex
	windows map[windowKey]*rateWindow
	now     func() time.Time
}

// NewEventLimiter constructs an empty limiter.
func NewEventLimiter() *EventLimiter {
	return &EventLimiter{
		windows: make(map[windowKey]*rateWindow),
		now:     time.Now,
	}
}

// Allow reports whether one more event of the given type may pass on this
// connection. A fresh or expired window starts at count 1 and allows; within
// a live window the count increments while count <= limit, and once the limit
// is hit further events are rejected without incrementing. limit <= 0 means
// unlimited.
func (l *EventLimiter) Allow(connectionID, eventType string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := windowKey{connectionID: connectionID, eventType: eventType}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= window {
		l.windows[key] = &rateWindow{start: now, count: 1}
		return true
	}

	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// Forget drops all window state for a connection (disconnect hook).
func (l *EventLimiter) Forget(connectionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.windows {
		if key.connectionID == connectionID {
			delete(l.windows, key)
		}
	}
}
