package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/types"
)

// defaultModerationDuration applies when an admin_action carries no duration.
const defaultModerationDuration = 5 * time.Minute

func (d *Dispatcher) handleJoinRoom(id types.ConnectionIDType, event types.Event) string {
	var payload types.JoinRoomPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil || store.NormalizeRoomID(payload.Room) == "" {
		return "malformed"
	}

	session, ok := d.sessions.Get(id)
	if !ok {
		return "dropped"
	}

	// A connection may hold membership in at most one room: joining while
	// already joined first departs the old room, announced normally.
	if session.RoomID != "" {
		if outcome := d.store.Leave(id); outcome.InRoom {
			d.sessions.ClearRoom(id)
			d.toRoom(outcome.RoomID, types.EventUserLeft, types.UserLeftPayload{SID: string(id)})
		}
	}

	outcome := d.store.TryJoin(store.JoinRequest{
		RoomID:       payload.Room,
		ConnectionID: id,
		Identity:     session.Identity,
		Name:         payload.Name,
		Avatar:       payload.Avatar,
		VideoEnabled: payload.VideoEnabled,
		AudioEnabled: payload.AudioEnabled,
	})

	switch outcome.Status {
	case store.JoinStatusBanned:
		d.toOne(id, types.EventError, types.ErrorPayload{
			Message: banMessage(outcome.BanRemaining),
		})
		return "rejected"

	case store.JoinStatusLocked:
		d.toOne(id, types.EventError, types.ErrorPayload{
			Message: "This room is locked.",
		})
		return "rejected"
	}

	d.sessions.SetRoom(id, outcome.RoomID)

	joiner, _ := d.store.MemberInfo(outcome.RoomID, id)
	d.toRoomExcept(outcome.RoomID, id, types.EventUserJoined, memberPayload(joiner))

	existing := make([]types.MemberPayload, 0, len(outcome.Existing))
	for _, m := range outcome.Existing {
		existing = append(existing, memberPayload(m))
	}
	d.toOne(id, types.EventExistingUsers, existing)

	if outcome.IsAdmin {
		d.toOne(id, types.EventSetAdmin, types.SetAdminPayload{IsAdmin: true})
	}

	if outcome.MuteRemaining > 0 {
		d.toOne(id, types.EventAdminCommand, types.AdminCommandPayload{
			Command:  types.AdminCommandMuteForce,
			Duration: int64(outcome.MuteRemaining.Seconds()),
		})
	}

	logging.Info(context.Background(), "Member joined",
		zap.String("connectionId", string(id)),
		zap.String("room", string(outcome.RoomID)),
		zap.Bool("isAdmin", outcome.IsAdmin))
	return "ok"
}

// handleSignal relays peer negotiation verbatim. Routing is permissive: any
// connection currently in any room is reachable; unknown targets drop.
func (d *Dispatcher) handleSignal(id types.ConnectionIDType, event types.Event) string {
	var payload types.SignalPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil || payload.Target == "" || payload.Type == "" {
		return "malformed"
	}

	target := types.ConnectionIDType(payload.Target)
	if !d.store.IsKnown(target) {
		return "dropped"
	}

	d.toOne(target, types.EventSignal, types.SignalEventPayload{
		Sender: string(id),
		Type:   payload.Type,
		Data:   payload.Data,
	})
	return "ok"
}

func (d *Dispatcher) handleStateChange(id types.ConnectionIDType, event types.Event) string {
	var payload types.StateChangePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return "malformed"
	}

	roomID, ok := d.store.SetMediaState(id, payload.Video, payload.Audio)
	if !ok {
		return "dropped"
	}

	d.toRoomExcept(roomID, id, types.EventUserStateChanged, types.UserStateChangedPayload{
		SID:   string(id),
		Video: payload.Video,
		Audio: payload.Audio,
	})
	return "ok"
}

func (d *Dispatcher) handleReaction(id types.ConnectionIDType, event types.Event) string {
	var payload types.ReactionPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil || payload.Emoji == "" {
		return "malformed"
	}

	roomID, ok := d.store.Resolve(id)
	if !ok {
		return "dropped"
	}

	d.toRoom(roomID, types.EventShowReaction, types.ShowReactionPayload{
		SID:   string(id),
		Emoji: payload.Emoji,
	})
	return "ok"
}

func (d *Dispatcher) handleChatMessage(id types.ConnectionIDType, event types.Event) string {
	var payload types.ChatMessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return "malformed"
	}

	roomID, ok := d.store.Resolve(id)
	if !ok {
		return "dropped"
	}
	sender, ok := d.store.MemberInfo(roomID, id)
	if !ok {
		return "dropped"
	}

	d.toRoom(roomID, types.EventChatMessage, types.ChatBroadcastPayload{
		SID:  string(id),
		Name: string(sender.Name),
		Text: truncateChat(payload.Text),
		Time: d.clock.Now().Format("15:04"),
	})
	return "ok"
}

func (d *Dispatcher) handleRaiseHand(id types.ConnectionIDType, event types.Event) string {
	var payload types.RaiseHandPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return "malformed"
	}

	roomID, ok := d.store.SetHandRaised(id, true)
	if !ok {
		return "dropped"
	}

	d.toRoom(roomID, types.EventUserHandRaised, types.UserHandRaisedPayload{SID: string(id)})
	return "ok"
}

// handleAdminAction applies a moderation command. Authority failures and
// missing targets drop silently: hostile clients get no signal.
func (d *Dispatcher) handleAdminAction(id types.ConnectionIDType, event types.Event) string {
	var payload types.AdminActionPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil || payload.Command == "" {
		return "malformed"
	}

	roomID := store.NormalizeRoomID(payload.Room)
	target := types.ConnectionIDType(payload.TargetSID)
	duration := moderationDuration(payload.Duration)

	action, ok := parseAdminAction(payload.Command, target, duration)
	if !ok {
		return "malformed"
	}

	outcome := d.store.AdminMutate(roomID, id, action)
	if outcome.Status != store.AdminStatusOK {
		logging.Warn(context.Background(), "Admin action dropped",
			zap.String("connectionId", string(id)),
			zap.String("room", string(roomID)),
			zap.String("command", payload.Command))
		return "dropped"
	}

	switch action.Kind {
	case store.AdminKick:
		d.toOne(target, types.EventKicked, types.KickedPayload{})
		d.sender.CloseConnection(target)

	case store.AdminBan:
		d.toOne(target, types.EventKicked, types.KickedPayload{Reason: "ban"})
		d.sender.CloseConnection(target)

	case store.AdminMute:
		d.toOne(target, types.EventAdminCommand, types.AdminCommandPayload{
			Command:  types.AdminCommandMuteForce,
			Duration: int64(duration.Seconds()),
		})

	case store.AdminUnmute:
		d.toOne(target, types.EventAdminCommand, types.AdminCommandPayload{
			Command: types.AdminCommandUnmuteForce,
		})

	case store.AdminToggleLock:
		d.toRoom(roomID, types.EventRoomLocked, types.RoomLockedPayload{Locked: outcome.Locked})
	}

	return "ok"
}
