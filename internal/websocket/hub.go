// Package websocket pushes live dashboard events (collection changes,
// notifications, connection status) to browsers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event types sent to dashboards
const (
	EventState        = "state"
	EventNotification = "notification"
	EventStatus       = "status"
)

// Event is the envelope of every pushed message
type Event struct {
	Type       string      `json:"type"`
	Collection string      `json:"collection,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients map: client ID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	log       *zap.Logger
	onCountFn func(int)
}

// NewHub creates a new Hub instance
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        log,
	}
}

// OnClientCount sets a callback for the number of connected clients
func (h *Hub) OnClientCount(fn func(int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCountFn = fn
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				h.closeClient(c)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok && old != client {
				h.closeClient(old)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debug("Dashboard connected", zap.String("client", client.ID))
			h.countChanged()

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.ID]; ok && cur == client {
				delete(h.clients, client.ID)
				h.closeClient(client)
			}
			h.mu.Unlock()
			h.log.Debug("Dashboard disconnected", zap.String("client", client.ID))
			h.countChanged()

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer; it reloads state on reconnect
					h.closeClient(c)
					delete(h.clients, id)
					h.log.Warn("Dropping slow dashboard", zap.String("client", id))
				}
			}
			h.mu.Unlock()
		}
	}
}

// closeClient ends a client's send queue. Callers hold h.mu for writing;
// SendJSON checks closed under the read lock, so no send races the close.
func (h *Hub) closeClient(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (h *Hub) countChanged() {
	h.mu.RLock()
	n, fn := len(h.clients), h.onCountFn
	h.mu.RUnlock()
	if fn != nil {
		fn(n)
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Broadcast(ev Event) bool {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("Error marshaling event", zap.String("type", ev.Type), zap.Error(err))
		return false
	}
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.log.Warn("Broadcast queue full, dropping event", zap.String("type", ev.Type))
		return false
	}
}

// SendTo sends an event to a specific client
func (h *Hub) SendTo(clientID string, ev Event) bool {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return client.SendJSON(ev) == nil
}
