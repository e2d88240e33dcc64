package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/kilianp07/vppsim/infra/logger"
)

// Message types sent to WebSocket clients.
const (
	TypeSnapshot      = "snapshot"
	TypeAlert         = "alert"
	TypeAlertsCleared = "alerts_cleared"
	TypeToast         = "toast"
	TypeDispatch      = "dispatch"
)

// ErrHubClosed is returned by Broadcast once the hub has stopped.
var ErrHubClosed = errors.New("hub closed")

// Message is the envelope of every WebSocket frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	buffer     int
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        logger.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub whose clients queue up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		buffer:     buffer,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        logger.New("ws_hub"),
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled. All
// client connections are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.log.Debugf("client registered: %s", c.remote())
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warnf("client %s send buffer full, removing", c.remote())
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Debugf("client unregistered: %s", c.remote())
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a typed message to every client.
func (h *Hub) Broadcast(msgType string, payload any) error {
	b, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- b:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
