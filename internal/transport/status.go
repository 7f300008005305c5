package transport

import (
	"sync"
	"time"
)

// Status is the observable connection state
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// MarshalText renders the status by name in JSON payloads
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusChange records one connection transition
type StatusChange struct {
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const maxStatusHistory = 50

// StatusTracker holds the current status and a short transition history, and
// fans transitions out on a channel. Both adapters embed one.
type StatusTracker struct {
	mu      sync.RWMutex
	current Status
	history []StatusChange

	events chan Status
	done   chan struct{}
}

func newStatusTracker() *StatusTracker {
	return &StatusTracker{
		current: StatusDisconnected,
		events:  make(chan Status, 16),
		done:    make(chan struct{}),
	}
}

// Status returns the current connection status
func (t *StatusTracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Events delivers every status transition. Consumers should re-read Status()
// when ordering matters, transitions are reported from several goroutines.
func (t *StatusTracker) Events() <-chan Status {
	return t.events
}

// History returns the recorded transitions, oldest first
func (t *StatusTracker) History() []StatusChange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]StatusChange, len(t.history))
	copy(out, t.history)
	return out
}

// set records a transition; it is a no-op when the status does not change
func (t *StatusTracker) set(next Status, reason string) bool {
	t.mu.Lock()
	if t.current == next {
		t.mu.Unlock()
		return false
	}
	t.history = append(t.history, StatusChange{
		From:      t.current,
		To:        next,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	if len(t.history) > maxStatusHistory {
		t.history = t.history[len(t.history)-maxStatusHistory:]
	}
	t.current = next
	t.mu.Unlock()

	select {
	case t.events <- next:
	case <-t.done:
	}
	return true
}

func (t *StatusTracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}
