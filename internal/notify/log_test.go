package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckcosting/internal/models"
)

func TestSeededWithSystemOnline(t *testing.T) {
	l := New()
	events := l.List()
	require.Len(t, events, 1)
	assert.Equal(t, "System Online", events[0].Title)
	assert.Equal(t, models.NotifySystem, events[0].Type)
}

func TestBoundedNewestFirst(t *testing.T) {
	l := New()
	l.Clear()
	for i := 1; i <= 15; i++ {
		l.Append(fmt.Sprintf("event %d", i), models.NotifyInfo)
	}

	events := l.List()
	require.Len(t, events, MaxEvents)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("event %d", 15-i), ev.Title)
	}
}

func TestDisplayTimeAndUniqueIDs(t *testing.T) {
	at := time.Date(2025, 12, 9, 14, 7, 0, 0, time.Local)
	l := NewWithClock(func() time.Time { return at })

	a := l.Append("Rates Saved", models.NotifySuccess)
	b := l.Append("Rates Saved", models.NotifySuccess)

	assert.Equal(t, "14:07", a.Time)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, at.UnixMilli(), a.Timestamp)
}

func TestClearAndListener(t *testing.T) {
	l := New()
	var seen []string
	l.OnAppend(func(ev models.NotificationEvent) { seen = append(seen, ev.Title) })

	l.Append("Invoice Sent", models.NotifySuccess)
	l.Clear()

	assert.Empty(t, l.List())
	assert.Equal(t, []string{"Invoice Sent"}, seen)
}
