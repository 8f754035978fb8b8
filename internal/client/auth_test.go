package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLobbySendsBearerToken(t *testing.T) {
	got := make(chan string, 1)
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer hs.Close()

	_, err := NewLobby(hs.URL, time.Second).WithToken("secret").WaitingRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", <-got)
}

func TestTransportSendsBearerToken(t *testing.T) {
	got := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case got <- r.Header.Get("Authorization"):
		default:
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer hs.Close()

	runTransport(t, TransportConfig{ServerURL: hs.URL, RoomID: "r1", Codec: protocol.CodecJSON, Token: "secret"}, nil,
		func(context.Context, protocol.Envelope) error { return nil })

	select {
	case h := <-got:
		assert.Equal(t, "Bearer secret", h)
	case <-time.After(2 * time.Second):
		t.Fatal("transport never dialed")
	}
}
