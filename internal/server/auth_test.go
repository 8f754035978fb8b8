package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/auth"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	tokens      map[string]string
	unavailable bool
}

func (f *fakeValidator) Validate(ctx context.Context, token string) (*auth.Identity, error) {
	if f.unavailable {
		return nil, auth.ErrUnavailable
	}
	user, ok := f.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{UserID: user, Name: user}, nil
}

func (ts *testServer) doAuth(t *testing.T, token, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(method, ts.http.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAuthReplacesClaimedUser(t *testing.T) {
	ts := newTestServer(t, WithValidator(&fakeValidator{tokens: map[string]string{"tok-a": "alice"}}, false))

	var room protocol.Room
	require.Equal(t, http.StatusCreated, ts.doAuth(t, "tok-a", http.MethodPost, "/api/rooms",
		protocol.CreateRoomRequest{HostUserID: "mallory"}, &room))
	assert.Equal(t, "alice", room.HostUserID)

	var joined protocol.JoinRoomResponse
	require.Equal(t, http.StatusOK, ts.doAuth(t, "tok-a", http.MethodPost, "/api/rooms/code/"+room.RoomCode+"/join",
		protocol.JoinRoomRequest{UserID: "mallory", PlayerName: "Alice"}, &joined))
	assert.Equal(t, "alice", joined.Player.UserID)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	ts := newTestServer(t, WithValidator(&fakeValidator{tokens: map[string]string{"tok-a": "alice"}}, false))

	var apiErr protocol.Error
	assert.Equal(t, http.StatusUnauthorized, ts.doAuth(t, "", http.MethodPost, "/api/rooms",
		protocol.CreateRoomRequest{HostUserID: "alice"}, &apiErr))
	assert.Equal(t, "unauthorized", apiErr.Code)

	assert.Equal(t, http.StatusUnauthorized, ts.doAuth(t, "forged", http.MethodPost, "/api/rooms",
		protocol.CreateRoomRequest{HostUserID: "alice"}, &apiErr))

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws/room?codec=json&token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthWebSocketAcceptsQueryToken(t *testing.T) {
	ts := newTestServer(t, WithValidator(&fakeValidator{tokens: map[string]string{"tok-a": "alice"}}, false))

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws/room?codec=json&token=tok-a"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return ts.Hub().Subscribers("room") == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestAuthUnavailable(t *testing.T) {
	t.Run("fail closed", func(t *testing.T) {
		ts := newTestServer(t, WithValidator(&fakeValidator{unavailable: true}, false))
		var apiErr protocol.Error
		assert.Equal(t, http.StatusServiceUnavailable, ts.doAuth(t, "tok", http.MethodPost, "/api/rooms",
			protocol.CreateRoomRequest{HostUserID: "alice"}, &apiErr))
		assert.Equal(t, "auth_unavailable", apiErr.Code)
	})

	t.Run("fail open", func(t *testing.T) {
		ts := newTestServer(t, WithValidator(&fakeValidator{unavailable: true}, true))
		var room protocol.Room
		require.Equal(t, http.StatusCreated, ts.doAuth(t, "tok", http.MethodPost, "/api/rooms",
			protocol.CreateRoomRequest{HostUserID: "alice"}, &room))
		assert.Equal(t, "alice", room.HostUserID)
	})
}

func TestNoopValidatorTrustsClaims(t *testing.T) {
	ts := newTestServer(t, WithValidator(auth.NewNoopValidator(), false))
	var room protocol.Room
	require.Equal(t, http.StatusCreated, ts.doAuth(t, "", http.MethodPost, "/api/rooms",
		protocol.CreateRoomRequest{HostUserID: "alice"}, &room))
	assert.Equal(t, "alice", room.HostUserID)
}
