// Package ws is the realtime sink: a broadcast hub fanning named session
// events out to every connected websocket client.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn, buffer int) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, buffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Hub broadcasts events to all connected clients. Clients that cannot
// keep up are disconnected rather than allowed to stall the emit path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	buffer  int
	log     *logrus.Logger
}

// NewHub creates a Hub with the given per-client send buffer.
func NewHub(buffer int, log *logrus.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		clients: make(map[*client]bool),
		buffer:  buffer,
		log:     log,
	}
}

// AddClient registers a websocket connection with the hub.
func (h *Hub) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn, h.buffer)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

// RemoveClient detaches and closes a client.
func (h *Hub) RemoveClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Emit broadcasts one named event to every connected client.
func (h *Hub) Emit(event string, data any) {
	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.log.WithField("event", event).WithError(err).Error("ws: marshal failed")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("ws: client too slow, disconnecting")
			h.RemoveClient(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
