package types

import "encoding/json"

// --- Core Domain Types ---

// ConnectionIDType uniquely identifies a transport connection process-wide.
type ConnectionIDType string

// RoomIDType identifies a room. Always stored normalized (trimmed, lowercased).
type RoomIDType string

// DisplayNameType is the human-readable name a member joined with.
type DisplayNameType string

// IdentityType is the client's network identity (forwarded-for value or peer
// address), used as the moderation key for bans and mutes across reconnects.
type IdentityType string

// MaxDisplayNameLen caps member display names.
const MaxDisplayNameLen = 64

// MaxChatMessageLen caps the text of a broadcast chat message.
const MaxChatMessageLen = 200

// --- Wire Envelope ---

// Event is a single frame on the wire in either direction:
// {"event": "<name>", "data": {...}}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventJoinRoom    = "join_room"
	EventSignal      = "signal"
	EventStateChange = "state_change"
	EventReaction    = "reaction"
	EventChatMessage = "chat_message"
	EventRaiseHand   = "raise_hand"
	EventAdminAction = "admin_action"
)

// Outbound event names.
const (
	EventUserJoined       = "user_joined"
	EventExistingUsers    = "existing_users"
	EventSetAdmin         = "set_admin"
	EventUserLeft         = "user_left"
	EventUserStateChanged = "user_state_changed"
	EventShowReaction     = "show_reaction"
	EventUserHandRaised   = "user_hand_raised"
	EventAdminCommand     = "admin_command"
	EventKicked           = "kicked"
	EventRoomLocked       = "room_locked"
	EventError            = "error"
)

// Admin commands accepted in admin_action payloads.
const (
	AdminCommandKick       = "kick"
	AdminCommandBan        = "ban"
	AdminCommandMute       = "mute"
	AdminCommandUnmute     = "unmute"
	AdminCommandToggleLock = "toggle_lock"
)

// Admin commands pushed to clients in admin_command events.
const (
	AdminCommandMuteForce   = "mute_force"
	AdminCommandUnmuteForce = "unmute_force"
)

// --- Inbound Payloads ---

// JoinRoomPayload is the payload of a join_room event.
type JoinRoomPayload struct {
	Room         string `json:"room"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	VideoEnabled bool   `json:"video_enabled"`
	AudioEnabled bool   `json:"audio_enabled"`
}

// SignalPayload is the payload of a signal relay request. Type and Data are
// opaque to the server (SDP offers/answers, ICE candidates).
type SignalPayload struct {
	Target string          `json:"target"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Room   string          `json:"room,omitempty"`
}

// StateChangePayload reports the sender's camera/microphone state.
type StateChangePayload struct {
	Room  string `json:"room"`
	Video bool   `json:"video"`
	Audio bool   `json:"audio"`
}

// ReactionPayload carries an emoji reaction.
type ReactionPayload struct {
	Room  string `json:"room"`
	Emoji string `json:"emoji"`
}

// ChatMessagePayload carries a chat message to broadcast.
type ChatMessagePayload struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// RaiseHandPayload announces a raised hand.
type RaiseHandPayload struct {
	Room string `json:"room"`
}

// AdminActionPayload is an admin moderation request. Duration is in minutes
// for ban and mute; zero means the default.
type AdminActionPayload struct {
	Room      string  `json:"room"`
	Command   string  `json:"command"`
	TargetSID string  `json:"target_sid,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// --- Outbound Payloads ---

// MemberPayload describes one member, used both in user_joined and as the
// element of existing_users.
type MemberPayload struct {
	SID          string `json:"sid"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	IsAdmin      bool   `json:"is_admin"`
	VideoEnabled bool   `json:"video_enabled"`
	AudioEnabled bool   `json:"audio_enabled"`
}

// SetAdminPayload notifies a member it holds admin authority.
type SetAdminPayload struct {
	IsAdmin bool `json:"is_admin"`
}

// UserLeftPayload announces a departure.
type UserLeftPayload struct {
	SID string `json:"sid"`
}

// SignalEventPayload is the relayed form of a signal.
type SignalEventPayload struct {
	Sender string          `json:"sender"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// UserStateChangedPayload broadcasts a media-state change.
type UserStateChangedPayload struct {
	SID   string `json:"sid"`
	Video bool   `json:"video"`
	Audio bool   `json:"audio"`
}

// ShowReactionPayload broadcasts a reaction.
type ShowReactionPayload struct {
	SID   string `json:"sid"`
	Emoji string `json:"emoji"`
}

// ChatBroadcastPayload is the broadcast form of a chat message. Time is the
// server wall clock formatted HH:MM.
type ChatBroadcastPayload struct {
	SID  string `json:"sid"`
	Name string `json:"name"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// UserHandRaisedPayload broadcasts a raised hand.
type UserHandRaisedPayload struct {
	SID string `json:"sid"`
}

// AdminCommandPayload pushes a forced state change to one member. Duration is
// in seconds when present.
type AdminCommandPayload struct {
	Command  string `json:"command"`
	Duration int64  `json:"duration,omitempty"`
}

// KickedPayload notifies a member it was removed. Reason is "ban" for bans
// and empty for plain kicks.
type KickedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// RoomLockedPayload broadcasts the room's lock state.
type RoomLockedPayload struct {
	Locked bool `json:"locked"`
}

// ErrorPayload surfaces a join rejection to the requesting connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
