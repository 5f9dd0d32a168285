package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"blog-editor-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var m struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &m))
		return Message{Type: m.Type, Payload: string(m.Payload)}
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubRoutesBySession(t *testing.T) {
	hub := startHub(t)

	a1 := &Client{SessionID: "a", Send: make(chan []byte, 4)}
	a2 := &Client{SessionID: "a", Send: make(chan []byte, 4)}
	b := &Client{SessionID: "b", Send: make(chan []byte, 4)}
	for _, c := range []*Client{a1, a2, b} {
		hub.Register(c)
	}
	require.Eventually(t, func() bool { return hub.ClientCount("a") == 2 }, time.Second, time.Millisecond)

	hub.SendToSession("a", "toolbar", map[string]bool{"bold": true})

	for _, c := range []*Client{a1, a2} {
		m := receive(t, c)
		assert.Equal(t, "toolbar", m.Type)
		assert.JSONEq(t, `{"bold":true}`, m.Payload.(string))
	}
	assert.Empty(t, b.Send)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	c := &Client{SessionID: "a", Send: make(chan []byte, 1)}
	hub.Register(c)
	hub.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, hub.ClientCount("a"))

	// A second unregister of the same client is ignored.
	hub.Unregister(c)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := startHub(t)
	c := &Client{SessionID: "a", Send: make(chan []byte, 1)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount("a") == 1 }, time.Second, time.Millisecond)

	hub.SendToSession("a", "toolbar", 1)
	hub.SendToSession("a", "toolbar", 2)

	assert.Eventually(t, func() bool { return hub.ClientCount("a") == 0 }, time.Second, time.Millisecond)
}

func TestHubStopsAcceptingAfterShutdown(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{SessionID: "a", Send: make(chan []byte, 1)}
	hub.Register(c)
	cancel()
	<-stopped

	returned := make(chan struct{})
	go func() {
		hub.Unregister(c)
		hub.Register(&Client{SessionID: "b", Send: make(chan []byte, 1)})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after the hub stopped")
	}
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHubSendDoesNotWaitOnRedis(t *testing.T) {
	// Nothing drains the publish queue because Run is never started.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	hub := NewHub(rdb, logger.NewNopLogger())

	sent := make(chan struct{})
	go func() {
		for i := 0; i < publishQueueSize+10; i++ {
			hub.SendToSession("a", "toolbar", i)
		}
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("send blocked on the cluster publisher")
	}
	assert.Len(t, hub.outbox, publishQueueSize)
}
