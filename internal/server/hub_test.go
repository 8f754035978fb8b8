package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketPair returns the server and client ends of one websocket.
func socketPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			accepted <- conn
		}
	}))
	t.Cleanup(hs.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-accepted:
		t.Cleanup(func() { _ = server.Close() })
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("websocket not accepted")
		return nil, nil
	}
}

func runHub(t *testing.T, rec Recorder) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(quietLogger(), rec)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	rec := &recorder{}
	hub, _ := runHub(t, rec)
	ctx := context.Background()

	serverEnd, client := socketPair(t)
	// no pumps: nothing drains the single-slot queue
	slow := NewConnection(serverEnd, hub, "r1", "slow", protocol.CodecJSON, 1, quietLogger())
	require.NoError(t, hub.Register(ctx, slow))
	require.Eventually(t, func() bool { return hub.Subscribers("r1") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, hub.Publish(ctx, "r1", protocol.Envelope{ActionType: protocol.ActionRollDice, Seq: 1}))
	require.NoError(t, hub.Publish(ctx, "r1", protocol.Envelope{ActionType: protocol.ActionBuyCard, Seq: 2}))

	require.Eventually(t, func() bool { return hub.Subscribers("r1") == 0 }, time.Second, time.Millisecond)
	stats := hub.Stats("r1")
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Relayed[protocol.ActionBuyCard])
	require.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, time.Millisecond)

	env, ok := <-slow.send
	require.True(t, ok)
	assert.Equal(t, uint64(1), env.Seq)
	_, ok = <-slow.send
	assert.False(t, ok, "send queue closed after drop")

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}

func TestHubPublishToEmptyRoom(t *testing.T) {
	rec := &recorder{}
	hub, _ := runHub(t, rec)

	require.NoError(t, hub.Publish(context.Background(), "nobody", protocol.Envelope{ActionType: protocol.ActionEndTurn}))
	assert.Zero(t, hub.Subscribers("nobody"))
	assert.Empty(t, hub.Stats("nobody").Relayed)
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub, cancel := runHub(t, nil)
	ctx := context.Background()

	serverEnd, client := socketPair(t)
	c := NewConnection(serverEnd, hub, "r1", "u", protocol.CodecJSON, 4, quietLogger())
	require.NoError(t, c.Start(ctx))
	require.Eventually(t, func() bool { return hub.Subscribers("r1") == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		return hub.Publish(ctx, "r1", protocol.Envelope{ActionType: protocol.ActionEndTurn}) == ErrHubClosed
	}, time.Second, time.Millisecond)
	assert.Zero(t, hub.Subscribers("r1"))
}
