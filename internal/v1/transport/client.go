package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
	"github.com/roomloop/signaling/internal/v1/types"
)

// sendBufferSize bounds each connection's outbound queue. A connection that
// falls this far behind is closed as unresponsive rather than allowed to
// stall the broadcast path.
const sendBufferSize = 256

// writeWait is the per-message write deadline.
const writeWait = 10 * time.Second

// wsConnection is the slice of *websocket.Conn the client uses. The
// indirection keeps the pumps testable with mock connections.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
}

// Client owns one WebSocket connection: a read pump that feeds the dispatcher
// sequentially and a write pump draining the bounded send buffer.
type Client struct {
	conn wsConnection
	id   types.ConnectionIDType
	hub  *Hub

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	send chan []byte
}

func newClient(conn wsConnection, id types.ConnectionIDType, hub *Hub) *Client {
	return &Client{
		conn: conn,
		id:   id,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

// trySend enqueues a frame without blocking. Returns false only on buffer
// overflow; frames to a closing connection are swallowed, not an overflow.
func (c *Client) trySend(data []byte) (ok bool) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	// The channel may close between the check and the send; recover keeps
	// that race harmless.
	defer func() {
		if r := recover(); r != nil {
			logging.GetLogger().Debug("Send to closed client", zap.String("connectionId", string(c.id)))
			ok = true
		}
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// disconnect closes the send channel once; the write pump drains remaining
// frames, sends a close frame, and closes the underlying connection.
func (c *Client) disconnect() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
	})
}

// readPump feeds inbound frames to the dispatcher. One event is dispatched to
// completion before the next frame is read, which is what gives events from a
// single connection their total order.
func (c *Client) readPump() {
	defer func() {
		c.hub.dropClient(c.id)
		c.disconnect()
		_ = c.conn.Close()
		metrics.DecConnection()
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var event types.Event
		if err := json.Unmarshal(data, &event); err != nil || event.Name == "" {
			logging.Warn(context.Background(), "Dropping malformed frame",
				zap.String("connectionId", string(c.id)))
			continue
		}

		c.hub.dispatcher.HandleEvent(c.id, event)
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logging.Error(context.Background(), "error writing message", zap.Error(err))
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
