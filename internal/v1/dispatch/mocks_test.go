package dispatch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/roomloop/signaling/internal/v1/sessions"
	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/types"
)

// mockSender implements types.Sender, recording every delivery and close.
type mockSender struct {
	mu     sync.Mutex
	sent   map[types.ConnectionIDType][]types.Event
	closed []types.ConnectionIDType
	// reject marks connections whose buffer is "full": Send returns false.
	reject map[types.ConnectionIDType]bool
}

func newMockSender() *mockSender {
	return &mockSender{
		sent:   make(map[types.ConnectionIDType][]types.Event),
		reject: make(map[types.ConnectionIDType]bool),
	}
}

func (m *mockSender) Send(id types.ConnectionIDType, event types.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reject[id] {
		return false
	}
	m.sent[id] = append(m.sent[id], event)
	return true
}

func (m *mockSender) CloseConnection(id types.ConnectionIDType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, id)
}

// events returns all events delivered to id with the given name.
func (m *mockSender) events(id types.ConnectionIDType, name string) []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Event
	for _, e := range m.sent[id] {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockSender) totalFor(id types.ConnectionIDType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent[id])
}

func (m *mockSender) wasClosed(id types.ConnectionIDType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.closed {
		if c == id {
			return true
		}
	}
	return false
}

func (m *mockSender) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = make(map[types.ConnectionIDType][]types.Event)
	m.closed = nil
}

// decodeInto unmarshals the single event's payload into out.
func decodeInto(t *testing.T, e types.Event, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, out))
}

// fixture wires a Dispatcher to real store/sessions and a mock sender.
type fixture struct {
	store    *store.Store
	sessions *sessions.Registry
	sender   *mockSender
	clock    *clocktesting.FakeClock
	d        *Dispatcher
}

func newFixture() *fixture {
	clk := clocktesting.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	st := store.NewStore(clk)
	reg := sessions.NewRegistry()
	sender := newMockSender()
	return &fixture{
		store:    st,
		sessions: reg,
		sender:   sender,
		clock:    clk,
		d:        NewDispatcher(st, reg, sender, clk),
	}
}

func evt(t *testing.T, name string, payload any) types.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return types.Event{Name: name, Data: data}
}

// connectAndJoin opens a session for id and joins it to room.
func (f *fixture) connectAndJoin(t *testing.T, id types.ConnectionIDType, identity types.IdentityType, room, name string) {
	t.Helper()
	f.d.Connect(id, identity)
	f.d.HandleEvent(id, evt(t, types.EventJoinRoom, types.JoinRoomPayload{
		Room:         room,
		Name:         name,
		AudioEnabled: true,
		VideoEnabled: true,
	}))
}
