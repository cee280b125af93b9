package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is the wire envelope for both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected clients and their room membership for broadcasts.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

// Unregister drops a client and its room membership.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
	if c.roomCode != "" {
		h.dropFromRoom(c, c.roomCode)
	}
}

// JoinRoom moves a client into a room's broadcast group.
func (h *Hub) JoinRoom(c *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.roomCode != "" && c.roomCode != code {
		h.dropFromRoom(c, c.roomCode)
	}
	c.roomCode = code
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[code] = members
	}
	members[c] = true
}

// LeaveRoom removes a client from its room's broadcast group.
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.roomCode != "" {
		h.dropFromRoom(c, c.roomCode)
		c.roomCode = ""
	}
}

func (h *Hub) dropFromRoom(c *Client, code string) {
	if members, ok := h.rooms[code]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Broadcast sends an event to every client in a room.
func (h *Hub) Broadcast(code, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		h.logger.Error("marshal broadcast failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		c.enqueue(data)
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

func marshalEvent(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Event{Event: event, Data: data})
}
