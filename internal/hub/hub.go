// Package hub keeps connected viewers of a gift list in sync with server
// state. A Registry tracks which live connections watch which list slug, a
// Broadcaster fans change events out to them, and Client runs the websocket
// pumps of one connection.
package hub

import (
	"context"
	"sync"
	"time"

	"giftlist-api/internal/config"
	"giftlist-api/pkg/uid"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Hub owns the registry, the broadcaster and the set of open clients. It is
// created once in main and injected where needed.
type Hub struct {
	cfg         config.LiveConfig
	registry    *Registry
	broadcaster *Broadcaster
	metrics     *Metrics
	log         logrus.FieldLogger

	mu       sync.Mutex
	clients  map[string]*Client
	shutdown bool
}

var _ Publisher = (*Hub)(nil)

// New creates a hub. Collectors are registered with reg when it is not nil.
func New(cfg config.LiveConfig, reg prometheus.Registerer, log logrus.FieldLogger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1024
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}

	log = log.WithField("component", "hub")
	metrics := NewMetrics(reg)
	registry := NewRegistry(cfg.MaxRoomSubscribers, metrics, log)

	return &Hub{
		cfg:         cfg,
		registry:    registry,
		broadcaster: NewBroadcaster(registry, metrics, log),
		metrics:     metrics,
		log:         log,
		clients:     make(map[string]*Client),
	}
}

// Registry returns the hub's room registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Publish delivers evt to the room of slug, skipping originConnID.
func (h *Hub) Publish(ctx context.Context, slug string, evt Event, originConnID string) {
	h.broadcaster.Publish(ctx, slug, evt, originConnID)
}

// Serve takes ownership of an upgraded connection: it assigns an id, sends
// the connected frame and starts the pumps. It returns without blocking.
func (h *Hub) Serve(conn *websocket.Conn) *Client {
	c := newClient(h, conn, uid.New())

	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return c
	}
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.Connections.Inc()

	if msg, err := (Event{Kind: KindConnected, Data: connectedData{ConnectionID: c.id}}).Encode(); err == nil {
		c.Enqueue(msg)
	}

	go c.WritePump()
	go c.ReadPump()

	c.log.Debug("Live connection opened")
	return c
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if ok {
		h.metrics.Connections.Dec()
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int { return h.registry.RoomCount() }

// Shutdown refuses new connections and closes every open one. Each client's
// queue is closed, so its write pump sends a close frame and closes the
// socket; the read pump then fails and drops the connection itself.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.shutdown = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
	h.log.WithField("clients", len(clients)).Info("Hub shut down")
}
