package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/types"
)

// --- Fan-out shapes ---

// toOne delivers an event to a single connection. Enqueueing never blocks; on
// buffer overflow the connection is closed as unresponsive and its departure
// flows through the normal disconnect path.
func (d *Dispatcher) toOne(id types.ConnectionIDType, name string, payload any) {
	event, err := buildEvent(name, payload)
	if err != nil {
		logging.Error(context.Background(), "Failed to marshal outbound event",
			zap.String("event", name), zap.Error(err))
		return
	}
	if !d.sender.Send(id, event) {
		metrics.SendDrops.Inc()
		logging.Warn(context.Background(), "Send buffer overflow, closing connection",
			zap.String("connectionId", string(id)), zap.String("event", name))
		d.sender.CloseConnection(id)
	}
}

// toRoom delivers an event to every current member of a room.
func (d *Dispatcher) toRoom(roomID types.RoomIDType, name string, payload any) {
	d.toRoomExcept(roomID, "", name, payload)
}

// toRoomExcept delivers an event to every member of a room but one. A slow
// recipient only affects itself: each member has its own bounded queue.
func (d *Dispatcher) toRoomExcept(roomID types.RoomIDType, except types.ConnectionIDType, name string, payload any) {
	event, err := buildEvent(name, payload)
	if err != nil {
		logging.Error(context.Background(), "Failed to marshal outbound event",
			zap.String("event", name), zap.Error(err))
		return
	}
	for _, id := range d.store.MemberIDs(roomID) {
		if id == except {
			continue
		}
		if !d.sender.Send(id, event) {
			metrics.SendDrops.Inc()
			logging.Warn(context.Background(), "Send buffer overflow, closing connection",
				zap.String("connectionId", string(id)), zap.String("event", name))
			d.sender.CloseConnection(id)
		}
	}
}

// --- Pure helpers ---

func buildEvent(name string, payload any) (types.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return types.Event{}, err
	}
	return types.Event{Name: name, Data: data}, nil
}

func memberPayload(m store.Member) types.MemberPayload {
	return types.MemberPayload{
		SID:          string(m.ConnectionID),
		Name:         string(m.Name),
		Avatar:       m.Avatar,
		IsAdmin:      m.IsAdmin,
		VideoEnabled: m.VideoEnabled,
		AudioEnabled: m.AudioEnabled,
	}
}

func banMessage(remaining time.Duration) string {
	seconds := int64(remaining.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("You are banned from this room. Try again in %ds.", seconds)
}

// moderationDuration converts an admin_action duration (minutes) to a
// time.Duration, applying the 5-minute default.
func moderationDuration(minutes float64) time.Duration {
	if minutes <= 0 {
		return defaultModerationDuration
	}
	return time.Duration(minutes * float64(time.Minute))
}

// truncateChat caps chat text at MaxChatMessageLen characters, counting
// runes so multi-byte text is never split mid-character.
func truncateChat(text string) string {
	runes := []rune(text)
	if len(runes) <= types.MaxChatMessageLen {
		return text
	}
	return string(runes[:types.MaxChatMessageLen])
}

func parseAdminAction(command string, target types.ConnectionIDType, duration time.Duration) (store.AdminAction, bool) {
	switch command {
	case types.AdminCommandKick:
		return store.AdminAction{Kind: store.AdminKick, Target: target}, true
	case types.AdminCommandBan:
		return store.AdminAction{Kind: store.AdminBan, Target: target, Duration: duration}, true
	case types.AdminCommandMute:
		return store.AdminAction{Kind: store.AdminMute, Target: target, Duration: duration}, true
	case types.AdminCommandUnmute:
		return store.AdminAction{Kind: store.AdminUnmute, Target: target}, true
	case types.AdminCommandToggleLock:
		return store.AdminAction{Kind: store.AdminToggleLock}, true
	default:
		return store.AdminAction{}, false
	}
}
