package utils

import (
	"sync"
	"time"
)

// IDClock hands out strictly increasing unix-millisecond values. Rates and
// invoices use them as ids, activities as timestamps, so two actions in the
// same millisecond still get distinct keys.
type IDClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDClock returns a clock reading the wall time
func NewIDClock() *IDClock {
	return &IDClock{now: time.Now}
}

// NewIDClockAt returns a clock reading now, for tests
func NewIDClockAt(now func() time.Time) *IDClock {
	return &IDClock{now: now}
}

// Next returns the next id
func (c *IDClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

// NextTime returns Next as a UTC time
func (c *IDClock) NextTime() time.Time {
	return time.UnixMilli(c.Next()).UTC()
}

// ISOMillis formats t like JavaScript's Date.toISOString
func ISOMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
