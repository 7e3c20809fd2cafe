// Package store implements the authoritative in-memory room state: members,
// moderation metadata (bans, mutes, lock) and admin election. All mutations
// run under a single store-wide mutex so callers observe every operation
// atomically; nothing here blocks on I/O.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
	"github.com/roomloop/signaling/internal/v1/types"
)

// Member is one participant of a room. Values returned from the store are
// copies; callers never hold references into live state.
type Member struct {
	ConnectionID types.ConnectionIDType
	Name         types.DisplayNameType
	Avatar       string
	Identity     types.IdentityType
	IsAdmin      bool
	VideoEnabled bool
	AudioEnabled bool
	HandRaised   bool
}

// room holds one room's members and moderation metadata. Rooms exist iff they
// have at least one member; the empty room and its metadata are deleted
// together.
type room struct {
	id      types.RoomIDType
	members map[types.ConnectionIDType]*Member
	locked  bool
	banned  map[types.IdentityType]time.Time
	muted   map[types.IdentityType]time.Time
}

// Store is the room coordinator's shared state.
type Store struct {
	mu    sync.Mutex
	rooms map[types.RoomIDType]*room
	// index maps a connection to the single room it is a member of.
	index map[types.ConnectionIDType]types.RoomIDType
	clock clock.PassiveClock
}

// NewStore creates an empty Store using the given clock for ban/mute expiry.
func NewStore(clk clock.PassiveClock) *Store {
	return &Store{
		rooms: make(map[types.RoomIDType]*room),
		index: make(map[types.ConnectionIDType]types.RoomIDType),
		clock: clk,
	}
}

// NormalizeRoomID trims whitespace and lowercases a client-supplied room id.
func NormalizeRoomID(raw string) types.RoomIDType {
	return types.RoomIDType(strings.ToLower(strings.TrimSpace(raw)))
}

// --- Join / Leave ---

// JoinStatus is the result class of a TryJoin.
type JoinStatus int

const (
	JoinStatusJoined JoinStatus = iota
	JoinStatusBanned
	JoinStatusLocked
)

// JoinOutcome reports the result of TryJoin. Existing holds snapshots of the
// members present before the join, in no particular order. MuteRemaining is
// non-zero iff the joiner's identity carries an unexpired mute.
type JoinOutcome struct {
	Status        JoinStatus
	RoomID        types.RoomIDType
	IsAdmin       bool
	Existing      []Member
	MuteRemaining time.Duration
	BanRemaining  time.Duration
}

// JoinRequest carries the parameters of a join attempt.
type JoinRequest struct {
	RoomID       string
	ConnectionID types.ConnectionIDType
	Identity     types.IdentityType
	Name         string
	Avatar       string
	VideoEnabled bool
	AudioEnabled bool
}

// TryJoin attempts to insert a member into a room, creating the room if it
// does not exist. The first member of a room becomes its admin. Callers must
// ensure the connection is not already a member of another room.
func (s *Store) TryJoin(req JoinRequest) JoinOutcome {
	roomID := NormalizeRoomID(req.RoomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	r, exists := s.rooms[roomID]

	if exists {
		if remaining, banned := s.consultLocked(r.banned, req.Identity, now); banned {
			return JoinOutcome{Status: JoinStatusBanned, RoomID: roomID, BanRemaining: remaining}
		}
		// A lock only guards occupied rooms; the "locked empty room" state is
		// unreachable because rooms die with their last member.
		if r.locked {
			return JoinOutcome{Status: JoinStatusLocked, RoomID: roomID}
		}
	} else {
		r = &room{
			id:      roomID,
			members: make(map[types.ConnectionIDType]*Member),
			banned:  make(map[types.IdentityType]time.Time),
			muted:   make(map[types.IdentityType]time.Time),
		}
		s.rooms[roomID] = r
		metrics.ActiveRooms.Inc()
		logging.Info(context.Background(), "Room created", zap.String("room", string(roomID)))
	}

	isAdmin := len(r.members) == 0

	existing := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		existing = append(existing, *m)
	}

	m := &Member{
		ConnectionID: req.ConnectionID,
		Name:         cleanDisplayName(req.Name),
		Avatar:       req.Avatar,
		Identity:     req.Identity,
		IsAdmin:      isAdmin,
		VideoEnabled: req.VideoEnabled,
		AudioEnabled: req.AudioEnabled,
	}
	r.members[req.ConnectionID] = m
	s.index[req.ConnectionID] = roomID
	metrics.RoomMembers.WithLabelValues(string(roomID)).Set(float64(len(r.members)))

	muteRemaining, _ := s.consultLocked(r.muted, req.Identity, now)

	return JoinOutcome{
		Status:        JoinStatusJoined,
		RoomID:        roomID,
		IsAdmin:       isAdmin,
		Existing:      existing,
		MuteRemaining: muteRemaining,
	}
}

// LeaveOutcome reports the result of a Leave.
type LeaveOutcome struct {
	InRoom   bool
	RoomID   types.RoomIDType
	WasAdmin bool
	Name     types.DisplayNameType
}

// Leave removes the member from its room. When the last member departs the
// room and its moderation metadata are deleted in the same critical section.
// No admin succession is performed: an adminless room runs until it empties.
func (s *Store) Leave(id types.ConnectionIDType) LeaveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.index[id]
	if !ok {
		return LeaveOutcome{}
	}
	delete(s.index, id)

	r := s.rooms[roomID]
	m := r.members[id]
	delete(r.members, id)

	if len(r.members) == 0 {
		delete(s.rooms, roomID)
		metrics.ActiveRooms.Dec()
		metrics.RoomMembers.DeleteLabelValues(string(roomID))
		logging.Info(context.Background(), "Room deleted", zap.String("room", string(roomID)))
	} else {
		metrics.RoomMembers.WithLabelValues(string(roomID)).Set(float64(len(r.members)))
	}

	return LeaveOutcome{InRoom: true, RoomID: roomID, WasAdmin: m.IsAdmin, Name: m.Name}
}

// --- Member state ---

// SetMediaState updates the member's camera/microphone flags. Returns the
// member's room and true, or false if the connection is in no room.
func (s *Store) SetMediaState(id types.ConnectionIDType, video, audio bool) (types.RoomIDType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, roomID, ok := s.memberLocked(id)
	if !ok {
		return "", false
	}
	m.VideoEnabled = video
	m.AudioEnabled = audio
	return roomID, true
}

// SetHandRaised updates the member's transient hand flag.
func (s *Store) SetHandRaised(id types.ConnectionIDType, raised bool) (types.RoomIDType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, roomID, ok := s.memberLocked(id)
	if !ok {
		return "", false
	}
	m.HandRaised = raised
	return roomID, true
}

// IsAdmin reports whether the connection is the admin of its room.
func (s *Store) IsAdmin(id types.ConnectionIDType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, ok := s.memberLocked(id)
	return ok && m.IsAdmin
}

// MemberInfo returns a snapshot of a room member.
func (s *Store) MemberInfo(roomID types.RoomIDType, id types.ConnectionIDType) (Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Member{}, false
	}
	m, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Resolve returns the room a connection is a member of.
func (s *Store) Resolve(id types.ConnectionIDType) (types.RoomIDType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.index[id]
	return roomID, ok
}

// IsKnown reports whether the connection is a member of any room. Signal
// relay uses this permissive check rather than same-room membership.
func (s *Store) IsKnown(id types.ConnectionIDType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.index[id]
	return ok
}

// MemberIDs returns the connection ids of a room's members.
func (s *Store) MemberIDs(roomID types.RoomIDType) []types.ConnectionIDType {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]types.ConnectionIDType, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

// HasRoom reports whether a room exists under the given (raw) id. Used by the
// code generator to guarantee fresh codes.
func (s *Store) HasRoom(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rooms[NormalizeRoomID(raw)]
	return ok
}

// RoomCount returns the number of live rooms.
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// MemberCount returns the number of members across all rooms.
func (s *Store) MemberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// --- Locked helpers ---

// memberLocked resolves a connection to its live member record.
// Caller must hold s.mu.
func (s *Store) memberLocked(id types.ConnectionIDType) (*Member, types.RoomIDType, bool) {
	roomID, ok := s.index[id]
	if !ok {
		return nil, "", false
	}
	m, ok := s.rooms[roomID].members[id]
	if !ok {
		return nil, "", false
	}
	return m, roomID, true
}

// consultLocked checks an expiry map for an unexpired entry, lazily purging
// an expired one. Caller must hold s.mu.
func (s *Store) consultLocked(entries map[types.IdentityType]time.Time, identity types.IdentityType, now time.Time) (time.Duration, bool) {
	expiry, ok := entries[identity]
	if !ok {
		return 0, false
	}
	if !now.Before(expiry) {
		delete(entries, identity)
		return 0, false
	}
	return expiry.Sub(now), true
}

func cleanDisplayName(raw string) types.DisplayNameType {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = "Guest"
	}
	if len(name) > types.MaxDisplayNameLen {
		name = name[:types.MaxDisplayNameLen]
	}
	return types.DisplayNameType(name)
}
