package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metrics records WebSocket traffic.
type Metrics interface {
	RecordWSMessage(direction, msgType string)
	IncWSConnections()
	DecWSConnections()
}

type nopMetrics struct{}

func (nopMetrics) RecordWSMessage(string, string) {}
func (nopMetrics) IncWSConnections()              {}
func (nopMetrics) DecWSConnections()              {}

// Hub tracks connections and the user rooms they joined. It implements
// stream.Emitter, so engine events reach every viewer of a user.
type Hub struct {
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	clients map[*Client]struct{}            // Protected by mu
	rooms   map[string]map[*Client]struct{} // Protected by mu
}

// NewHub creates an empty hub.
func NewHub(metrics Metrics, logger *zap.Logger) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		metrics: metrics,
		logger:  logger.Named("ws"),
		now:     time.Now,
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Emit sends event to every connection in userID's room. The frame is
// encoded once; slow connections drop it rather than stall the sender.
func (h *Hub) Emit(userID, event string, payload any) {
	frame, err := h.encode(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	room := h.rooms[userID]
	targets := make([]*Client, 0, len(room))
	for c := range room {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.deliver(frame) {
			h.metrics.RecordWSMessage("out", event)
		}
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: event, Data: payload, Timestamp: h.now().UnixMilli()})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncWSConnections()
}

// unregister removes c from the hub and every room and closes its queue.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for userID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
	h.mu.Unlock()

	c.closeSend()
	h.metrics.DecWSConnections()
}

// join adds c to userID's room. Joining twice is a no-op.
func (h *Hub) join(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
}

// RoomSize returns how many connections watch userID.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
