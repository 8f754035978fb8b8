// Package store persists lobby rooms and their seated players.
//
// Rooms and players live in two tables reachable through database/sql.
// SQLite (modernc.org/sqlite) is the default; PostgreSQL (lib/pq) is used
// when the driver is "postgres".
package store

import (
	"context"
	"errors"

	"github.com/lox/pokeropoly/internal/protocol"
)

var (
	ErrRoomNotFound      = errors.New("store: room not found")
	ErrRoomFull          = errors.New("store: room is full")
	ErrGameStarted       = errors.New("store: game already started")
	ErrNotHost           = errors.New("store: only the host can start the game")
	ErrPlayerNotFound    = errors.New("store: player not in room")
	ErrNotEnoughPlayers  = errors.New("store: no players seated")
	ErrInvalidMaxPlayers = errors.New("store: max players must be between 1 and 4")
	ErrInvalidUser       = errors.New("store: user id is required")
)

// MaxSeats is the number of seats on a board: one per corner suit.
const MaxSeats = 4

// Store is the room lifecycle.
type Store interface {
	CreateRoom(ctx context.Context, hostUserID string, maxPlayers int) (protocol.Room, error)
	JoinRoom(ctx context.Context, code, userID, name string) (protocol.Room, protocol.Player, error)
	LeaveRoom(ctx context.Context, code, userID string) error
	SetReady(ctx context.Context, roomID, userID string, ready bool) error
	StartGame(ctx context.Context, roomID, hostUserID string) (protocol.Room, error)
	Room(ctx context.Context, roomID string) (protocol.Room, error)
	RoomByCode(ctx context.Context, code string) (protocol.Room, error)
	Players(ctx context.Context, roomID string) ([]protocol.Player, error)
	WaitingRooms(ctx context.Context) ([]protocol.Room, error)
	Close() error
}

// PlayerColors are the seat colours by player index. Seat suits follow
// deck.Suits.
var PlayerColors = [MaxSeats]string{"#000000", "#DC143C", "#90EE90", "#ADD8E6"}

// WaitingRoomsLimit caps WaitingRooms.
const WaitingRoomsLimit = 10
