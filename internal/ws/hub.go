// Package ws carries the operations live feed: settlement, dispatch and
// gift-card events broadcast to connected admin dashboards.
package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	hub    *OpsHub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// OpsHub maintains the set of connected dashboards and broadcasts to them.
// Slow consumers are skipped rather than blocking the publisher.
type OpsHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewOpsHub() *OpsHub {
	return &OpsHub{clients: make(map[*Client]struct{})}
}

func (h *OpsHub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *OpsHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *OpsHub) Broadcast(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *OpsHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
