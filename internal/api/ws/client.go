package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 64

// Client is one viewer connection.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte // Closed under mu
	closed bool        // Protected by mu
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	clientID := uuid.NewString()
	return &Client{
		id:     clientID,
		hub:    hub,
		conn:   conn,
		logger: hub.logger.With(zap.String("conn_id", clientID)),
		send:   make(chan []byte, sendBuffer),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// deliver queues frame without blocking. It reports whether the frame was
// queued.
func (c *Client) deliver(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn("Send buffer full, dropping frame")
		return false
	}
}

// reply queues an event for this connection only.
func (c *Client) reply(event string, payload any) {
	frame, err := c.hub.encode(event, payload)
	if err != nil {
		c.logger.Error("Failed to encode reply", zap.String("event", event), zap.Error(err))
		return
	}
	if c.deliver(frame) {
		c.hub.metrics.RecordWSMessage("out", event)
	}
}

func (c *Client) replyError(msg string) {
	c.reply(TypeError, ErrorData{Message: msg})
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings. It is the only writer on conn.
func (c *Client) writePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
