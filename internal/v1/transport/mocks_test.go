package transport

import (
	"sync"
	"time"

	"github.com/roomloop/signaling/internal/v1/types"
)

// MockConnection implements wsConnection.
type MockConnection struct {
	ReadMessageFunc  func() (int, []byte, error)
	WriteMessageFunc func(int, []byte) error
	CloseFunc        func() error
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	if m.ReadMessageFunc != nil {
		return m.ReadMessageFunc()
	}
	return 0, nil, nil
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	if m.WriteMessageFunc != nil {
		return m.WriteMessageFunc(messageType, data)
	}
	return nil
}

func (m *MockConnection) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockConnection) SetWriteDeadline(_ time.Time) error {
	return nil
}

// scriptedConnection replays frames and then blocks until released, after
// which reads fail as if the peer hung up.
type scriptedConnection struct {
	MockConnection

	mu       sync.Mutex
	frames   [][]byte
	types    []int
	released chan struct{}
	once     sync.Once

	writes     chan []byte
	writeTypes chan int
}

func newScriptedConnection(frames ...[]byte) *scriptedConnection {
	msgTypes := make([]int, len(frames))
	for i := range msgTypes {
		msgTypes[i] = 1 // websocket.TextMessage
	}
	return newScriptedConnectionTyped(frames, msgTypes)
}

func newScriptedConnectionTyped(frames [][]byte, msgTypes []int) *scriptedConnection {
	c := &scriptedConnection{
		frames:     frames,
		types:      msgTypes,
		released:   make(chan struct{}),
		writes:     make(chan []byte, 64),
		writeTypes: make(chan int, 64),
	}
	c.ReadMessageFunc = c.read
	c.WriteMessageFunc = c.write
	c.CloseFunc = c.release
	return c
}

func (c *scriptedConnection) read() (int, []byte, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		frame, msgType := c.frames[0], c.types[0]
		c.frames, c.types = c.frames[1:], c.types[1:]
		c.mu.Unlock()
		return msgType, frame, nil
	}
	c.mu.Unlock()

	<-c.released
	return 0, nil, errPeerGone
}

func (c *scriptedConnection) write(msgType int, data []byte) error {
	c.writeTypes <- msgType
	c.writes <- data
	return nil
}

// release unblocks the read loop; safe to call more than once.
func (c *scriptedConnection) release() error {
	c.once.Do(func() { close(c.released) })
	return nil
}

type peerGoneError struct{}

func (peerGoneError) Error() string { return "peer gone" }

var errPeerGone = peerGoneError{}

// mockDispatcher implements types.Dispatcher, recording every call.
type mockDispatcher struct {
	mu           sync.Mutex
	connected    map[types.ConnectionIDType]types.IdentityType
	events       []types.Event
	eventSources []types.ConnectionIDType
	disconnected []types.ConnectionIDType
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{connected: make(map[types.ConnectionIDType]types.IdentityType)}
}

func (m *mockDispatcher) Connect(id types.ConnectionIDType, identity types.IdentityType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected[id] = identity
}

func (m *mockDispatcher) HandleEvent(id types.ConnectionIDType, event types.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.eventSources = append(m.eventSources, id)
}

func (m *mockDispatcher) Disconnect(id types.ConnectionIDType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = append(m.disconnected, id)
}

func (m *mockDispatcher) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockDispatcher) disconnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.disconnected)
}

func (m *mockDispatcher) soleConnection() (types.ConnectionIDType, types.IdentityType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.connected) != 1 {
		return "", "", false
	}
	for id, identity := range m.connected {
		return id, identity, true
	}
	return "", "", false
}
