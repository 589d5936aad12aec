package realtime

import (
	"errors"
	"sync"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/domain/user"
)

// Sender writes one message to a connected peer. Implemented by the WebSocket
// gateway; kept as an interface so the registry and rooms never touch the
// transport directly.
type Sender interface {
	Send(msg any) error
	Close() error
}

var ErrNotConnected = errors.New("connection is not registered")

type binding struct {
	connectionID string
	userID       string
	role         user.Role
	sender       Sender
}

// Registry is the process-wide in-memory view of who is connected and where
// every online driver is. All operations are idempotent and O(1); mutation is
// serialized by a single mutex whose critical sections never block on I/O.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*binding                 // connection id -> binding
	users   map[string]string                   // user id -> current connection id
	drivers map[string]tracking.DriverPresence // driver id -> live presence
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[string]*binding),
		users:   make(map[string]string),
		drivers: make(map[string]tracking.DriverPresence),
	}
}

// Bind registers a connection for a user. A second login by the same user
// supersedes the first: the old binding is dropped and its transport closed,
// which lets the superseded connection's own cleanup run (guarded by
// connection id, so it cannot evict this newer binding).
func (r *Registry) Bind(connectionID, userID string, role user.Role, s Sender) {
	var evicted Sender

	r.mu.Lock()
	if oldConnID, ok := r.users[userID]; ok && oldConnID != connectionID {
		if old, ok := r.conns[oldConnID]; ok {
			evicted = old.sender
			delete(r.conns, oldConnID)
		}
	}
	r.conns[connectionID] = &binding{connectionID: connectionID, userID: userID, role: role, sender: s}
	r.users[userID] = connectionID
	r.mu.Unlock()

	// close outside the lock; triggers the old read loop's exit
	if evicted != nil {
		_ = evicted.Close()
	}
}

// Unbind removes the user's connection binding, but only when it still points
// at the given connection id. A stale disconnect from a superseded connection
// is a no-op. Reports whether the binding was removed.
func (r *Registry) Unbind(userID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.users[userID]; !ok || cur != connectionID {
		return false
	}
	delete(r.users, userID)
	delete(r.conns, connectionID)
	return true
}

// ConnectionFor returns the current connection id bound to a user.
func (r *Registry) ConnectionFor(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.users[userID]
	return id, ok
}

// Deliver sends a message to a connection. Returns ErrNotConnected for
// unknown connection ids; transport write errors pass through so callers can
// prune dead members lazily.
func (r *Registry) Deliver(connectionID string, msg any) error {
	r.mu.RLock()
	b, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return b.sender.Send(msg)
}

// UpsertDriver installs or overwrites the live presence for a driver.
// Last-writer-wins per driver id: a presence from a prior connection is
// overwritten, never merged.
func (r *Registry) UpsertDriver(p tracking.DriverPresence) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.drivers[p.DriverID] = p
	r.mu.Unlock()
}

// Driver returns the live presence for a driver, if online.
func (r *Registry) Driver(driverID string) (tracking.DriverPresence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.drivers[driverID]
	return p, ok
}

// RemoveDriver deletes a driver's presence unconditionally (explicit offline
// transition). Idempotent.
func (r *Registry) RemoveDriver(driverID string) {
	r.mu.Lock()
	delete(r.drivers, driverID)
	r.mu.Unlock()
}

// RemoveDriverIfConn deletes a driver's presence only when it was written by
// the given connection. This is the fence that keeps a stale disconnect from
// evicting the presence of a newer connection for the same driver.
func (r *Registry) RemoveDriverIfConn(driverID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.drivers[driverID]
	if !ok || p.ConnectionID != connectionID {
		return false
	}
	delete(r.drivers, driverID)
	return true
}

// OnlineDriverCount returns the number of drivers with a live presence.
func (r *Registry) OnlineDriverCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}

// ConnectionCount returns the number of bound connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// DriverSnapshot returns a copy of all live driver presences (admin/debug use).
func (r *Registry) DriverSnapshot() []tracking.DriverPresence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tracking.DriverPresence, 0, len(r.drivers))
	for _, p := range r.drivers {
		out = append(out, p)
	}
	return out
}
