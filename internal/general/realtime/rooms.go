package realtime

import "sync"

// Transport resolves a connection id to a deliverable peer. The Registry
// implements it; tests substitute fakes.
type Transport interface {
	Deliver(connectionID string, msg any) error
}

// RoomRouter maintains subscription groups keyed by delivery id and fans
// outbound events out to their members. Rooms are created lazily on first
// join and vanish when their last member leaves.
type RoomRouter struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]struct{} // room id -> member connection ids
	byConn    map[string]map[string]struct{} // connection id -> joined room ids
	transport Transport
}

// NewRoomRouter constructs a RoomRouter that delivers through the given transport.
func NewRoomRouter(transport Transport) *RoomRouter {
	return &RoomRouter{
		rooms:     make(map[string]map[string]struct{}),
		byConn:    make(map[string]map[string]struct{}),
		transport: transport,
	}
}

// Join adds a connection to a room. Idempotent.
func (rr *RoomRouter) Join(roomID, connectionID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.rooms[roomID] == nil {
		rr.rooms[roomID] = make(map[string]struct{})
	}
	rr.rooms[roomID][connectionID] = struct{}{}

	if rr.byConn[connectionID] == nil {
		rr.byConn[connectionID] = make(map[string]struct{})
	}
	rr.byConn[connectionID][roomID] = struct{}{}
}

// Leave removes a connection from a room. Leaving a room never joined is a no-op.
func (rr *RoomRouter) Leave(roomID, connectionID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.leaveLocked(roomID, connectionID)
}

// LeaveAll removes a connection from every room it joined (disconnect hook).
func (rr *RoomRouter) LeaveAll(connectionID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	for roomID := range rr.byConn[connectionID] {
		rr.leaveLocked(roomID, connectionID)
	}
}

func (rr *RoomRouter) leaveLocked(roomID, connectionID string) {
	if members, ok := rr.rooms[roomID]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(rr.rooms, roomID)
		}
	}
	if joined, ok := rr.byConn[connectionID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(rr.byConn, connectionID)
		}
	}
}

// Broadcast delivers msg exactly once to every member present at call time,
// except the optional excluded sender. Membership is snapshotted up front, so
// a connection that left strictly before the call never receives the event.
// Delivery failures are dropped silently and the dead member is pruned.
func (rr *RoomRouter) Broadcast(roomID string, msg any, excludeConnectionID string) {
	rr.mu.RLock()
	members := make([]string, 0, len(rr.rooms[roomID]))
	for connID := range rr.rooms[roomID] {
		if connID != excludeConnectionID {
			members = append(members, connID)
		}
	}
	rr.mu.RUnlock()

	var dead []string
	for _, connID := range members {
		if err := rr.transport.Deliver(connID, msg); err != nil {
			dead = append(dead, connID)
		}
	}

	if len(dead) > 0 {
		rr.mu.Lock()
		for _, connID := range dead {
			rr.leaveLocked(roomID, connID)
		}
		rr.mu.Unlock()
	}
}

// MemberCount returns the current number of members in a room.
func (rr *RoomRouter) MemberCount(roomID string) int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms[roomID])
}

// RoomCount returns the number of rooms with at least one member.
func (rr *RoomRouter) RoomCount() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}
