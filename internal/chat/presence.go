package chat

import "sync"

// Conn is a live connection able to receive pushed events. Push must not
// block.
type Conn interface {
	Push(ev Event)
}

// PresenceRegistry maps a user identity to the set of live connections for
// that identity. A user may hold several simultaneous connections (multiple
// tabs or devices); delivery fans out to all of them.
type PresenceRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[Conn]struct{}
	owner  map[Conn]string
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser: make(map[string]map[Conn]struct{}),
		owner:  make(map[Conn]string),
	}
}

// Register adds a connection under the given user identity.
func (r *PresenceRegistry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.byUser[userID] = set
	}
	set[conn] = struct{}{}
	r.owner[conn] = userID
}

// Deregister removes a connection. It is driven by transport-level closure,
// not an explicit logout message; unknown connections are ignored.
func (r *PresenceRegistry) Deregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.owner[conn]
	if !ok {
		return
	}
	delete(r.owner, conn)
	if set, ok := r.byUser[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// Deliver pushes an event to every live connection of the given user and
// returns how many connections received it. Zero live connections is not an
// error: nothing is queued for offline users.
func (r *PresenceRegistry) Deliver(userID string, ev Event) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.byUser[userID]))
	for conn := range r.byUser[userID] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		conn.Push(ev)
	}
	return len(conns)
}

// Connections reports the number of live connections for a user.
func (r *PresenceRegistry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
