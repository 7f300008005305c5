package transport

import (
	"context"
	"sync"
)

// MemoryServer is an in-process broker with retained-message semantics. It
// backs the offline demo mode and the engine tests. Topics match exactly; no
// wildcards.
type MemoryServer struct {
	mu        sync.Mutex
	available bool
	retained  map[string][]byte
	clients   map[*MemoryClient]struct{}
	published []Message
}

// NewMemoryServer returns a running server with no retained state
func NewMemoryServer() *MemoryServer {
	return &MemoryServer{
		available: true,
		retained:  make(map[string][]byte),
		clients:   make(map[*MemoryClient]struct{}),
	}
}

// NewClient attaches a disconnected client to the server
func (s *MemoryServer) NewClient(queueSize int) *MemoryClient {
	if queueSize < 1 {
		queueSize = 1
	}
	c := &MemoryClient{
		StatusTracker: newStatusTracker(),
		server:        s,
		subs:          make(map[string]struct{}),
		messages:      make(chan Message, queueSize),
		signal:        make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.pump()
	return c
}

// Inject publishes as if from another broker client, e.g. the rules backend
func (s *MemoryServer) Inject(topic string, payload []byte, retained bool) {
	s.publish(Message{Topic: topic, Payload: payload, Retained: retained})
}

// Retained returns the payload currently retained on topic
func (s *MemoryServer) Retained(topic string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.retained[topic]
	return p, ok
}

// Published returns every publish the server accepted, in order
func (s *MemoryServer) Published() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.published))
	copy(out, s.published)
	return out
}

// PublishedOn returns the accepted publishes for one topic, in order
func (s *MemoryServer) PublishedOn(topic string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Restart simulates a broker restart that loses retained state: every client
// is dropped, retained messages are cleared, then clients that still want a
// connection come back.
func (s *MemoryServer) Restart() {
	s.SetAvailable(false)
	s.mu.Lock()
	s.retained = make(map[string][]byte)
	s.mu.Unlock()
	s.SetAvailable(true)
}

// SetAvailable takes the server down (dropping every client) or brings it
// back (reconnecting clients that called Connect and not Close).
func (s *MemoryServer) SetAvailable(up bool) {
	s.mu.Lock()
	s.available = up
	clients := make([]*MemoryClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if up {
			c.reconnect()
		} else {
			c.drop("broker unavailable")
		}
	}
}

func (s *MemoryServer) isAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *MemoryServer) publish(msg Message) {
	s.mu.Lock()
	if msg.Retained {
		// an empty retained payload clears the topic
		if len(msg.Payload) == 0 {
			delete(s.retained, msg.Topic)
		} else {
			s.retained[msg.Topic] = append([]byte(nil), msg.Payload...)
		}
	}
	s.published = append(s.published, msg)
	targets := make([]*MemoryClient, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	// live deliveries carry retained=false, as a real broker does
	live := Message{Topic: msg.Topic, Payload: msg.Payload}
	for _, c := range targets {
		if c.subscribed(msg.Topic) {
			c.enqueue(live)
		}
	}
}

func (s *MemoryServer) detach(c *MemoryClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// MemoryClient is a Broker attached to a MemoryServer
type MemoryClient struct {
	*StatusTracker

	server *MemoryServer

	mu      sync.Mutex
	subs    map[string]struct{}
	wanted  bool
	closed  bool
	pending []Message

	messages chan Message
	signal   chan struct{}
}

// Connect is synchronous against the in-process server; when the server is
// down the client reports Disconnected and reconnects once it comes back.
func (c *MemoryClient) Connect(_ context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wanted = true
	c.mu.Unlock()

	c.reconnect()
}

func (c *MemoryClient) reconnect() {
	c.mu.Lock()
	wanted := c.wanted && !c.closed
	c.mu.Unlock()
	if !wanted {
		return
	}

	c.set(StatusConnecting, "dialling")
	if !c.server.isAvailable() {
		c.set(StatusDisconnected, "broker unavailable")
		return
	}
	c.set(StatusConnected, "connected")
}

func (c *MemoryClient) drop(reason string) {
	c.mu.Lock()
	// clean session: subscriptions do not survive a drop
	c.subs = make(map[string]struct{})
	c.mu.Unlock()
	c.set(StatusDisconnected, reason)
}

// Subscribe registers topics and replays their retained payloads
func (c *MemoryClient) Subscribe(topics ...string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	c.mu.Lock()
	for _, t := range topics {
		c.subs[t] = struct{}{}
	}
	c.mu.Unlock()

	for _, t := range topics {
		if payload, ok := c.server.Retained(t); ok {
			c.enqueue(Message{Topic: t, Payload: payload, Retained: true})
		}
	}
	return nil
}

// Publish forwards to the server, which echoes to every subscriber including
// this client
func (c *MemoryClient) Publish(topic string, payload []byte, opts PublishOptions) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	c.server.publish(Message{
		Topic:    topic,
		Payload:  append([]byte(nil), payload...),
		Retained: opts.Retained,
	})
	return nil
}

// Messages delivers inbound publishes in arrival order
func (c *MemoryClient) Messages() <-chan Message {
	return c.messages
}

// Close detaches from the server and stops delivery
func (c *MemoryClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.wanted = false
	c.mu.Unlock()

	c.server.detach(c)
	c.stop()
	c.set(StatusDisconnected, "closed")
}

func (c *MemoryClient) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[topic]
	return ok
}

// enqueue never blocks the publisher; pump drains into the bounded channel
func (c *MemoryClient) enqueue(m Message) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, m)
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *MemoryClient) pump() {
	for {
		select {
		case <-c.signal:
		case <-c.done:
			return
		}

		for {
			c.mu.Lock()
			if len(c.pending) == 0 {
				c.mu.Unlock()
				break
			}
			m := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()

			select {
			case c.messages <- m:
			case <-c.done:
				return
			}
		}
	}
}
