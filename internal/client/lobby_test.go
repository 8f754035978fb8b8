package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLobbyRoomLifecycle(t *testing.T) {
	_, hs := startServer(t)
	lobby := NewLobby(hs.URL+"/", time.Second)
	ctx := context.Background()

	room, err := lobby.CreateRoom(ctx, "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, room.MaxPlayers)

	rooms, err := lobby.WaitingRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	a, err := lobby.JoinRoom(ctx, room.RoomCode, "alice", "Alice")
	require.NoError(t, err)
	b, err := lobby.JoinRoom(ctx, room.RoomCode, "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Player.PlayerIndex)
	assert.Equal(t, 1, b.Player.PlayerIndex)

	again, err := lobby.JoinRoom(ctx, room.RoomCode, "bob", "Bobby")
	require.NoError(t, err)
	assert.Equal(t, b.Player.ID, again.Player.ID)

	require.NoError(t, lobby.SetReady(ctx, room.ID, "bob", true))

	_, err = lobby.StartGame(ctx, room.ID, "bob")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "not_host", apiErr.Code)

	started, err := lobby.StartGame(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusPlaying, started.Status)
	assert.NoError(t, started.GameState.Validate())

	loaded, err := lobby.Room(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, started.GameState, loaded.GameState)

	players, err := lobby.Players(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.True(t, players[1].IsReady)

	require.NoError(t, lobby.LeaveRoom(ctx, room.RoomCode, "bob"))
	err = lobby.LeaveRoom(ctx, room.RoomCode, "bob")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "player_not_found", apiErr.Code)
}

func TestLobbyNotFound(t *testing.T) {
	_, hs := startServer(t)
	lobby := NewLobby(hs.URL, 0)

	_, err := lobby.Room(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "room_not_found")
}

func TestLobbyUnreachable(t *testing.T) {
	lobby := NewLobby("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := lobby.WaitingRooms(context.Background())
	var apiErr *APIError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &apiErr))
}
