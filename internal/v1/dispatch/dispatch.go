// Package dispatch demultiplexes inbound events: it validates membership and
// authority preconditions, drives the room store, and fans resulting events
// out to the transport. Events from one connection are handled sequentially
// by the transport's read loop, so a member's join is fully announced before
// any later event it authors is processed.
package dispatch

import (
	"context"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
	"github.com/roomloop/signaling/internal/v1/sessions"
	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/types"
)

// Dispatcher routes inbound events to store mutations and outbound emissions.
// It implements types.Dispatcher.
type Dispatcher struct {
	store    *store.Store
	sessions *sessions.Registry
	sender   types.Sender
	clock    clock.PassiveClock
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(st *store.Store, reg *sessions.Registry, sender types.Sender, clk clock.PassiveClock) *Dispatcher {
	return &Dispatcher{
		store:    st,
		sessions: reg,
		sender:   sender,
		clock:    clk,
	}
}

// Connect registers a new transport connection. Connections are always
// accepted; bans are per-room and enforced at join time.
func (d *Dispatcher) Connect(id types.ConnectionIDType, identity types.IdentityType) {
	d.sessions.Open(id, identity)
	logging.Info(context.Background(), "Connection opened",
		zap.String("connectionId", string(id)),
		zap.String("identity", logging.RedactIdentity(string(identity))))
}

// Disconnect tears the connection down: the session is destroyed and, if the
// connection was a room member, the departure is announced exactly once.
func (d *Dispatcher) Disconnect(id types.ConnectionIDType) {
	d.sessions.Close(id)

	outcome := d.store.Leave(id)
	if !outcome.InRoom {
		return
	}

	d.toRoom(outcome.RoomID, types.EventUserLeft, types.UserLeftPayload{SID: string(id)})
	logging.Info(context.Background(), "Member left",
		zap.String("connectionId", string(id)),
		zap.String("room", string(outcome.RoomID)),
		zap.Bool("wasAdmin", outcome.WasAdmin))
}

// HandleEvent routes one inbound event. Malformed payloads drop the event and
// keep the connection; unknown event names are ignored.
func (d *Dispatcher) HandleEvent(id types.ConnectionIDType, event types.Event) {
	status := "ok"

	switch event.Name {
	case types.EventJoinRoom:
		status = d.handleJoinRoom(id, event)
	case types.EventSignal:
		status = d.handleSignal(id, event)
	case types.EventStateChange:
		status = d.handleStateChange(id, event)
	case types.EventReaction:
		status = d.handleReaction(id, event)
	case types.EventChatMessage:
		status = d.handleChatMessage(id, event)
	case types.EventRaiseHand:
		status = d.handleRaiseHand(id, event)
	case types.EventAdminAction:
		status = d.handleAdminAction(id, event)
	default:
		logging.Warn(context.Background(), "Unknown event received",
			zap.String("connectionId", string(id)), zap.String("event", event.Name))
		status = "unknown"
	}

	metrics.Events.WithLabelValues(event.Name, status).Inc()
}
