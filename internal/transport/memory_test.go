package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *MemoryClient) Message {
	t.Helper()
	select {
	case m := <-c.Messages():
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func nextStatus(t *testing.T, c *MemoryClient) Status {
	t.Helper()
	select {
	case s := <-c.Events():
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no status event")
		return StatusDisconnected
	}
}

func TestMemoryClientLifecycle(t *testing.T) {
	srv := NewMemoryServer()
	c := srv.NewClient(8)
	defer c.Close()

	assert.Equal(t, StatusDisconnected, c.Status())
	assert.ErrorIs(t, c.Publish("a", []byte("x"), PublishOptions{}), ErrNotConnected)

	c.Connect(context.Background())
	assert.Equal(t, StatusConnecting, nextStatus(t, c))
	assert.Equal(t, StatusConnected, nextStatus(t, c))
	assert.Equal(t, StatusConnected, c.Status())

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, StatusDisconnected, history[0].From)
	assert.Equal(t, StatusConnected, history[1].To)
}

func TestMemoryRetainedReplayOnSubscribe(t *testing.T) {
	srv := NewMemoryServer()
	srv.Inject("State/Rates", []byte(`[1]`), true)
	srv.Inject("Action/Submit", []byte(`{}`), false)

	c := srv.NewClient(8)
	defer c.Close()
	c.Connect(context.Background())
	require.NoError(t, c.Subscribe("State/Rates", "Action/Submit"))

	m := receive(t, c)
	assert.Equal(t, "State/Rates", m.Topic)
	assert.Equal(t, `[1]`, string(m.Payload))
	assert.True(t, m.Retained)

	select {
	case extra := <-c.Messages():
		t.Fatalf("unexpected replay of non-retained message on %s", extra.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryPublishEchoesInOrder(t *testing.T) {
	srv := NewMemoryServer()
	a := srv.NewClient(8)
	b := srv.NewClient(8)
	defer a.Close()
	defer b.Close()

	a.Connect(context.Background())
	b.Connect(context.Background())
	require.NoError(t, a.Subscribe("t"))
	require.NoError(t, b.Subscribe("t"))

	for _, p := range []string{"1", "2", "3"} {
		require.NoError(t, a.Publish("t", []byte(p), PublishOptions{Retained: true}))
	}

	for _, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, string(receive(t, a).Payload))
		assert.Equal(t, want, string(receive(t, b).Payload))
	}

	retained, ok := srv.Retained("t")
	require.True(t, ok)
	assert.Equal(t, "3", string(retained))
	assert.Len(t, srv.PublishedOn("t"), 3)
}

func TestMemoryRestartLosesRetainedAndReconnects(t *testing.T) {
	srv := NewMemoryServer()
	c := srv.NewClient(8)
	defer c.Close()
	c.Connect(context.Background())
	require.NoError(t, c.Subscribe("t"))
	require.NoError(t, c.Publish("t", []byte("x"), PublishOptions{Retained: true}))
	receive(t, c)

	srv.Restart()

	_, ok := srv.Retained("t")
	assert.False(t, ok)
	assert.Equal(t, StatusConnected, c.Status())

	// subscriptions were dropped with the session
	srv.Inject("t", []byte("y"), false)
	select {
	case m := <-c.Messages():
		t.Fatalf("unexpected delivery on %s", m.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryServerDown(t *testing.T) {
	srv := NewMemoryServer()
	srv.SetAvailable(false)

	c := srv.NewClient(8)
	defer c.Close()
	c.Connect(context.Background())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.ErrorIs(t, c.Subscribe("t"), ErrNotConnected)

	srv.SetAvailable(true)
	assert.Equal(t, StatusConnected, c.Status())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Connecting", StatusConnecting.String())
	assert.Equal(t, "Connected", StatusConnected.String())
	assert.Equal(t, "Disconnected", StatusDisconnected.String())

	text, err := StatusConnected.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Connected", string(text))
}
