package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one live connection. The read pump handles room membership
// frames; the write pump drains the send queue in FIFO order and keeps the
// connection alive with pings.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	log  logrus.FieldLogger

	mu     sync.RWMutex
	send   chan []byte
	closed bool

	dropOnce sync.Once
}

var _ Subscriber = (*Client)(nil)

func newClient(h *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		log:  h.log.WithField("conn_id", id),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// Enqueue queues msg without blocking. It returns false when the queue is
// full or the client is closing.
func (c *Client) Enqueue(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the queue, which makes the write pump send a close frame
// and exit.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// drop releases every resource held for the connection. Only the first call
// has an effect. It runs on the read pump's goroutine, after any Join from
// that connection has returned, so no membership is left behind.
func (c *Client) drop() {
	c.dropOnce.Do(func() {
		c.hub.registry.DropConnection(c.id)
		c.hub.removeClient(c)
		c.closeSend()
		c.conn.Close()
		c.log.Debug("Connection dropped")
	})
}

// ReadPump reads client frames until the connection fails or closes, then
// drops the connection.
func (c *Client) ReadPump() {
	defer c.drop()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("Live connection read error")
			} else {
				c.log.Debug("Live connection closed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Debugf("Ignoring non-text frame type %d", messageType)
			continue
		}
		c.handleFrame(message)
	}
}

func (c *Client) handleFrame(message []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.log.WithError(err).Debug("Ignoring malformed frame")
		return
	}

	var slug string
	if err := json.Unmarshal(frame.Data, &slug); err != nil || slug == "" {
		c.log.WithField("event", frame.Event).Debug("Ignoring frame without slug")
		return
	}

	switch frame.Event {
	case joinRoom:
		if err := c.hub.registry.Join(c, slug); err != nil {
			if errors.Is(err, ErrRoomFull) {
				c.log.WithField("slug", slug).Warn("Room full, join rejected")
				return
			}
			c.log.WithError(err).WithField("slug", slug).Error("Join failed")
		}
	case leaveRoom:
		c.hub.registry.Leave(c.id, slug)
	default:
		c.log.WithField("event", frame.Event).Debug("Ignoring unknown frame")
	}
}

// WritePump writes queued frames and periodic pings until the queue closes
// or a write fails.
func (c *Client) WritePump() {
	writeWait := c.hub.cfg.WriteWait
	ticker := time.NewTicker(c.hub.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("Failed to write to live connection")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("Failed to send ping")
				return
			}
		}
	}
}
