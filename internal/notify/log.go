// Package notify keeps the dashboard's local event feed. It is never
// published; it starts with one "System Online" entry per process.
package notify

import (
	"sync"
	"time"

	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/utils"
)

// MaxEvents bounds the feed
const MaxEvents = 10

// Listener observes appended events
type Listener func(models.NotificationEvent)

// Log is a bounded newest-first notification feed
type Log struct {
	mu       sync.RWMutex
	events   []models.NotificationEvent
	clock    *utils.IDClock
	now      func() time.Time
	listener Listener
}

// New returns a log seeded with the startup event
func New() *Log {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable wall clock
func NewWithClock(now func() time.Time) *Log {
	l := &Log{
		clock: utils.NewIDClockAt(now),
		now:   now,
	}
	l.Append("System Online", models.NotifySystem)
	return l
}

// OnAppend sets the listener called after every Append
func (l *Log) OnAppend(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listener = fn
}

// Append records an event at the head and drops anything past MaxEvents
func (l *Log) Append(title string, typ models.NotificationType) models.NotificationEvent {
	now := l.now()
	ev := models.NotificationEvent{
		ID:        l.clock.Next(),
		Title:     title,
		Time:      now.Format("15:04"),
		Type:      typ,
		Timestamp: now.UnixMilli(),
	}

	l.mu.Lock()
	next := make([]models.NotificationEvent, 0, MaxEvents)
	next = append(next, ev)
	for _, old := range l.events {
		if len(next) == MaxEvents {
			break
		}
		next = append(next, old)
	}
	l.events = next
	listener := l.listener
	l.mu.Unlock()

	if listener != nil {
		listener(ev)
	}
	return ev
}

// Clear empties the feed
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// List returns the events, newest first
func (l *Log) List() []models.NotificationEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.NotificationEvent, len(l.events))
	copy(out, l.events)
	return out
}
