package transport

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySend_ReportsOverflow(t *testing.T) {
	client := newClient(&MockConnection{}, "c1", nil)

	// No write pump running: the buffer fills and then overflows.
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, client.trySend([]byte("frame")))
	}
	assert.False(t, client.trySend([]byte("one too many")))
}

func TestTrySend_AfterDisconnectSwallowed(t *testing.T) {
	client := newClient(&MockConnection{}, "c1", nil)

	client.disconnect()

	// Not an overflow: the connection is going away, the frame just vanishes.
	assert.True(t, client.trySend([]byte("late frame")))
}

func TestDisconnect_Idempotent(t *testing.T) {
	client := newClient(&MockConnection{}, "c1", nil)

	client.disconnect()
	assert.NotPanics(t, func() { client.disconnect() })
}

func TestWritePump_DrainsThenSendsCloseFrame(t *testing.T) {
	conn := newScriptedConnection()
	client := newClient(conn, "c1", nil)

	require.True(t, client.trySend([]byte("one")))
	require.True(t, client.trySend([]byte("two")))
	client.disconnect()

	// The channel is already closed, so the pump runs to completion inline.
	client.writePump()

	assert.Equal(t, websocket.TextMessage, <-conn.writeTypes)
	assert.Equal(t, []byte("one"), <-conn.writes)
	assert.Equal(t, websocket.TextMessage, <-conn.writeTypes)
	assert.Equal(t, []byte("two"), <-conn.writes)
	assert.Equal(t, websocket.CloseMessage, <-conn.writeTypes)
}
