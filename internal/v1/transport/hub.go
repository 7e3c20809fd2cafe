package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/identity"
	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
	"github.com/roomloop/signaling/internal/v1/ratelimit"
	"github.com/roomloop/signaling/internal/v1/types"
)

// Hub owns every live WebSocket connection and is the dispatcher's delivery
// surface: it implements types.Sender. Room membership lives in the store,
// not here; the hub only maps connection ids to connections.
type Hub struct {
	mu    sync.RWMutex
	conns map[types.ConnectionIDType]*Client

	dispatcher     types.Dispatcher
	rateLimiter    *ratelimit.RateLimiter
	allowedOrigins []string
}

// NewHub creates a Hub. Bind must be called before serving connections.
func NewHub(rateLimiter *ratelimit.RateLimiter, allowedOrigins []string) *Hub {
	return &Hub{
		conns:          make(map[types.ConnectionIDType]*Client),
		rateLimiter:    rateLimiter,
		allowedOrigins: allowedOrigins,
	}
}

// Bind attaches the dispatcher. Split from NewHub because the dispatcher
// needs the hub as its Sender.
func (h *Hub) Bind(d types.Dispatcher) {
	h.dispatcher = d
}

// ServeWs upgrades the request and starts the connection's pumps. Every
// connection is accepted (bans are enforced at join time); the connection id
// is assigned server-side.
func (h *Hub) ServeWs(c *gin.Context) {
	if h.rateLimiter != nil && !h.rateLimiter.CheckWebSocket(c) {
		return // response already written
	}

	if err := validateOrigin(c.Request, h.allowedOrigins); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	conn, err := h.upgradeWebSocket(c)
	if err != nil {
		return
	}

	h.HandleConnection(c.Request, conn)
}

// HandleConnection registers an established WebSocket connection. Split from
// ServeWs so tests can drive the hub with mock connections.
func (h *Hub) HandleConnection(r *http.Request, conn wsConnection) {
	id := types.ConnectionIDType(uuid.New().String())
	client := newClient(conn, id, h)

	h.mu.Lock()
	h.conns[id] = client
	h.mu.Unlock()

	metrics.IncConnection()

	h.dispatcher.Connect(id, identity.FromRequest(r))

	go client.writePump()
	go client.readPump()
}

// Send implements types.Sender. It never blocks; false reports an overflow on
// the target's bounded buffer.
func (h *Hub) Send(id types.ConnectionIDType, event types.Event) bool {
	h.mu.RLock()
	client, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		// The connection is already gone; nothing to deliver, nothing to close.
		return true
	}

	data, err := json.Marshal(event)
	if err != nil {
		logging.Error(context.Background(), "Failed to marshal frame",
			zap.String("event", event.Name), zap.Error(err))
		return true
	}

	return client.trySend(data)
}

// CloseConnection implements types.Sender. The actual teardown happens in the
// connection's read pump, so a close triggered mid-dispatch is processed as a
// normal disconnect afterwards.
func (h *Hub) CloseConnection(id types.ConnectionIDType) {
	h.mu.RLock()
	client, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	client.disconnect()
}

// dropClient removes the connection from the registry and announces the
// departure. Called exactly once per connection, from its read pump.
func (h *Hub) dropClient(id types.ConnectionIDType) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()

	h.dispatcher.Disconnect(id)
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection and waits for the registry to drain.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	logging.Info(ctx, "Shutting down Hub", zap.Int("connections", len(clients)))

	for _, client := range clients {
		client.disconnect()
	}

	return nil
}
