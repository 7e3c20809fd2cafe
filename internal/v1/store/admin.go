package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/types"
)

// AdminActionKind enumerates the moderation actions an admin may take.
type AdminActionKind int

const (
	AdminKick AdminActionKind = iota
	AdminBan
	AdminMute
	AdminUnmute
	AdminToggleLock
)

// AdminAction is a moderation request against a room. Target is ignored for
// ToggleLock; Duration applies to Ban and Mute only.
type AdminAction struct {
	Kind     AdminActionKind
	Target   types.ConnectionIDType
	Duration time.Duration
}

// AdminStatus is the result class of an AdminMutate.
type AdminStatus int

const (
	AdminStatusOK AdminStatus = iota
	// AdminStatusNotAuthorized: the actor is not the room's admin, or is not
	// in the room at all. Dispatch drops these silently.
	AdminStatusNotAuthorized
	// AdminStatusTargetMissing: the target is not a member of the room.
	AdminStatusTargetMissing
)

// AdminOutcome reports the result of an AdminMutate. Locked carries the
// post-toggle lock state for ToggleLock; Duration echoes the effective
// ban/mute duration.
type AdminOutcome struct {
	Status   AdminStatus
	Locked   bool
	Duration time.Duration
}

// AdminMutate applies a moderation action. The actor must be the admin of the
// room; bans and mutes are recorded against the target's network identity so
// they survive reconnects. The target member itself is not removed here;
// kicks and bans remove it through the transport close and the normal
// disconnect path.
func (s *Store) AdminMutate(roomID types.RoomIDType, actor types.ConnectionIDType, action AdminAction) AdminOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return AdminOutcome{Status: AdminStatusNotAuthorized}
	}
	a, ok := r.members[actor]
	if !ok || !a.IsAdmin {
		return AdminOutcome{Status: AdminStatusNotAuthorized}
	}

	if action.Kind == AdminToggleLock {
		r.locked = !r.locked
		logging.Info(context.Background(), "Room lock toggled",
			zap.String("room", string(roomID)), zap.Bool("locked", r.locked))
		return AdminOutcome{Status: AdminStatusOK, Locked: r.locked}
	}

	target, ok := r.members[action.Target]
	if !ok {
		return AdminOutcome{Status: AdminStatusTargetMissing}
	}

	switch action.Kind {
	case AdminKick:
		// Nothing to record; the caller closes the target's transport.

	case AdminBan:
		r.banned[target.Identity] = s.clock.Now().Add(action.Duration)
		logging.Info(context.Background(), "Identity banned",
			zap.String("room", string(roomID)),
			zap.String("identity", logging.RedactIdentity(string(target.Identity))),
			zap.Duration("duration", action.Duration))

	case AdminMute:
		r.muted[target.Identity] = s.clock.Now().Add(action.Duration)
		target.AudioEnabled = false
		logging.Info(context.Background(), "Identity muted",
			zap.String("room", string(roomID)),
			zap.String("identity", logging.RedactIdentity(string(target.Identity))),
			zap.Duration("duration", action.Duration))

	case AdminUnmute:
		delete(r.muted, target.Identity)
	}

	return AdminOutcome{Status: AdminStatusOK, Duration: action.Duration}
}
