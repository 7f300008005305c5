// Package transport adapts the publish/subscribe broker the costing backend
// talks through. Callers see a tri-state connection status, a single ordered
// stream of inbound messages and a fire-and-forget publish.
package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by Publish and Subscribe while the transport is
// not connected. Nothing is queued for later delivery.
var ErrNotConnected = errors.New("transport: not connected")

// Message is one inbound publish tagged with its source channel
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// PublishOptions controls how the broker stores a publish
type PublishOptions struct {
	// Retained asks the broker to keep the payload and hand it to future subscribers
	Retained bool
}

// Broker is the minimal capability the sync engine needs from the broker.
//
// Connect never fails past this boundary: a failed attempt is reported as a
// Disconnected status and retried by the implementation. Messages are
// delivered on one channel in arrival order.
type Broker interface {
	Connect(ctx context.Context)
	Subscribe(topics ...string) error
	Publish(topic string, payload []byte, opts PublishOptions) error
	Messages() <-chan Message
	Events() <-chan Status
	Status() Status
	Close()
}
