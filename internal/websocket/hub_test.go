package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, &Event{Type: EventStatus, Data: "Connected"})
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out map[string]interface{}
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestHelloThenBroadcast(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)

	assert.Equal(t, "status", readEvent(t, a)["type"])
	assert.Equal(t, "status", readEvent(t, b)["type"])
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.True(t, hub.Broadcast(Event{Type: EventState, Collection: "inbound", Data: []string{"DN-1"}}))

	for _, conn := range []*gws.Conn{a, b} {
		ev := readEvent(t, conn)
		assert.Equal(t, "state", ev["type"])
		assert.Equal(t, "inbound", ev["collection"])
	}
}

func TestPingPong(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "PING", "msgId": "42"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "PONG", ev["type"])
	assert.Equal(t, "42", ev["msgId"])
}

func TestClientCountCallback(t *testing.T) {
	hub, srv := startHub(t)
	counts := make(chan int, 4)
	hub.OnClientCount(func(n int) { counts <- n })

	conn := dial(t, srv)
	select {
	case n := <-counts:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no count callback")
	}

	conn.Close()
	select {
	case n := <-counts:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no count callback after close")
	}
}

func TestSendJSONAfterHubClosesClient(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), ID: "web_test"}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	// senders keep going while the hub shuts down; none may panic
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = client.SendJSON(Event{Type: EventStatus, Data: j})
			}
		}()
	}
	go func() {
		for range client.send {
		}
	}()
	cancel()
	<-stopped
	wg.Wait()

	assert.ErrorIs(t, client.SendJSON(Event{Type: EventStatus}), errClientGone)
	assert.False(t, hub.SendTo("web_test", Event{Type: EventStatus}))
}

func TestReplacedClientStopsAcceptingSends(t *testing.T) {
	hub, _ := startHub(t)

	first := &Client{hub: hub, send: make(chan []byte, 1), ID: "web_same"}
	second := &Client{hub: hub, send: make(chan []byte, 1), ID: "web_same"}
	hub.register <- first
	hub.register <- second
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return first.closed
	}, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, first.SendJSON(Event{Type: EventStatus}), errClientGone)
	assert.NoError(t, second.SendJSON(Event{Type: EventStatus}))
}
