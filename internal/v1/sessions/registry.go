// Package sessions tracks live transport connections: connection-id to
// network identity plus the room the connection has joined, if any. A session
// exists from transport connect to disconnect regardless of room membership.
package sessions

import (
	"sync"

	"github.com/roomloop/signaling/internal/v1/types"
)

// Session is the per-connection record.
type Session struct {
	ConnectionID types.ConnectionIDType
	Identity     types.IdentityType
	RoomID       types.RoomIDType // empty until a successful join
}

// Registry is a concurrency-safe map of live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[types.ConnectionIDType]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[types.ConnectionIDType]*Session),
	}
}

// Open records a new session. Connections are always accepted; bans are
// per-room and enforced at join time.
func (r *Registry) Open(id types.ConnectionIDType, identity types.IdentityType) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Session{ConnectionID: id, Identity: identity}
	r.sessions[id] = s
	return s
}

// Close removes the session and returns the room it had joined, if any.
func (r *Registry) Close(id types.ConnectionIDType) (types.RoomIDType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	delete(r.sessions, id)
	return s.RoomID, s.RoomID != ""
}

// Get returns a copy of the session for id.
func (r *Registry) Get(id types.ConnectionIDType) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Identity returns the network identity recorded at connect time.
func (r *Registry) Identity(id types.ConnectionIDType) (types.IdentityType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	return s.Identity, true
}

// SetRoom records a successful join.
func (r *Registry) SetRoom(id types.ConnectionIDType, roomID types.RoomIDType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.RoomID = roomID
	}
}

// ClearRoom clears the room association after a leave.
func (r *Registry) ClearRoom(id types.ConnectionIDType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.RoomID = ""
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
