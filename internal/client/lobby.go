package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lox/pokeropoly/internal/protocol"
)

// APIError is a non-2xx lobby response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("lobby: HTTP %d", e.Status)
	}
	return fmt.Sprintf("lobby: %s: %s", e.Code, e.Message)
}

// Lobby calls the server's room API.
type Lobby struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewLobby returns a lobby client for serverURL. A zero timeout means 30s.
func NewLobby(serverURL string, timeout time.Duration) *Lobby {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Lobby{
		baseURL: strings.TrimRight(serverURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken makes every request carry token as a bearer credential.
func (l *Lobby) WithToken(token string) *Lobby {
	l.token = token
	return l
}

func (l *Lobby) CreateRoom(ctx context.Context, hostUserID string, maxPlayers int) (protocol.Room, error) {
	var room protocol.Room
	err := l.call(ctx, http.MethodPost, "/api/rooms", protocol.CreateRoomRequest{HostUserID: hostUserID, MaxPlayers: maxPlayers}, &room)
	return room, err
}

func (l *Lobby) WaitingRooms(ctx context.Context) ([]protocol.Room, error) {
	var rooms []protocol.Room
	err := l.call(ctx, http.MethodGet, "/api/rooms", nil, &rooms)
	return rooms, err
}

func (l *Lobby) Room(ctx context.Context, roomID string) (protocol.Room, error) {
	var room protocol.Room
	err := l.call(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID), nil, &room)
	return room, err
}

func (l *Lobby) Players(ctx context.Context, roomID string) ([]protocol.Player, error) {
	var players []protocol.Player
	err := l.call(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID)+"/players", nil, &players)
	return players, err
}

// JoinRoom takes a seat by room code; joining again returns the same seat.
func (l *Lobby) JoinRoom(ctx context.Context, code, userID, name string) (protocol.JoinRoomResponse, error) {
	var resp protocol.JoinRoomResponse
	err := l.call(ctx, http.MethodPost, "/api/rooms/code/"+url.PathEscape(code)+"/join",
		protocol.JoinRoomRequest{UserID: userID, PlayerName: name}, &resp)
	return resp, err
}

func (l *Lobby) LeaveRoom(ctx context.Context, code, userID string) error {
	return l.call(ctx, http.MethodPost, "/api/rooms/code/"+url.PathEscape(code)+"/leave",
		protocol.LeaveRoomRequest{UserID: userID}, nil)
}

func (l *Lobby) SetReady(ctx context.Context, roomID, userID string, ready bool) error {
	return l.call(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomID)+"/ready",
		protocol.SetReadyRequest{UserID: userID, Ready: ready}, nil)
}

func (l *Lobby) StartGame(ctx context.Context, roomID, hostUserID string) (protocol.Room, error) {
	var room protocol.Room
	err := l.call(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomID)+"/start",
		protocol.StartGameRequest{HostUserID: hostUserID}, &room)
	return room, err
}

func (l *Lobby) call(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("lobby %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e protocol.Error
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("lobby %s %s: decode: %w", method, path, err)
	}
	return nil
}
