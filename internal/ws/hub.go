package ws

import (
	"sync"

	"github.com/sirupsen/logrus"

	"go_crm/internal/event"
)

// Hub tracks connected websocket clients and their project room membership.
// It is safe for concurrent use; handlers and workers broadcast through it.
type Hub struct {
	log        *logrus.Entry
	sendBuffer int

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
}

// NewHub creates a new hub. sendBuffer is the per-client outbound queue size.
func NewHub(logger *logrus.Entry, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		log:        logger.WithField("component", "ws-hub"),
		sendBuffer: sendBuffer,
		clients:    make(map[*client]struct{}),
		rooms:      make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.WithField("client", c.id).Info("client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		for room := range c.rooms {
			h.removeFromRoom(room, c)
		}
		close(c.send)
	}
	h.mu.Unlock()
	h.log.WithField("client", c.id).Info("client disconnected")
}

// joinRoom adds c to a project room. Idempotent per client.
func (h *Hub) joinRoom(room string, c *client) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"client": c.id, "room": room}).Info("joined room")
}

func (h *Hub) leaveRoom(room string, c *client) {
	h.mu.Lock()
	h.removeFromRoom(room, c)
	delete(c.rooms, room)
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"client": c.id, "room": room}).Info("left room")
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(room string, c *client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients currently in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastDatabaseEvent sends a database-change event to every client in the
// event's project room. Slow clients are skipped, never waited on.
func (h *Hub) BroadcastDatabaseEvent(ev event.DatabaseEvent) {
	data, err := event.Marshal(event.KindDBChange, ev)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal database event")
		return
	}
	h.broadcastToRoom(ev.ProjectID, data)
}

// BroadcastProjectEvent sends a project-level event to the project's room.
func (h *Hub) BroadcastProjectEvent(ev event.ProjectEvent) {
	data, err := event.Marshal(event.KindProjectEvent, ev)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal project event")
		return
	}
	h.broadcastToRoom(ev.ProjectID, data)
}

func (h *Hub) broadcastToRoom(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			// Queue full: the write pump is stuck or the client is gone.
			h.log.WithField("client", c.id).Warn("send queue full, dropping message")
		}
	}
}
