// Package protocol defines the wire types shared by the server, the client
// transport and the game session: the broadcast action envelope and the
// room/player records exchanged through the lobby API.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
)

// ActionType names a turn action carried in an Envelope.
type ActionType string

const (
	ActionRollDice     ActionType = "rollDice"
	ActionBuyCard      ActionType = "buyCard"
	ActionEndTurn      ActionType = "endTurn"
	ActionPayPenalty   ActionType = "payPenalty"
	ActionStartAuction ActionType = "startAuction"
	ActionPlaceBid     ActionType = "placeBid"
	ActionEndAuction   ActionType = "endAuction"
)

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// Envelope is one broadcast action. UserID and PlayerIndex identify the
// sender as the original clients did; Origin and Seq identify the sending
// session so receivers can drop their own echoes and duplicate deliveries.
type Envelope struct {
	UserID      string          `json:"user_id"`
	PlayerIndex int             `json:"player_index"`
	ActionType  ActionType      `json:"action_type"`
	ActionData  json.RawMessage `json:"action_data"`
	Origin      string          `json:"origin,omitempty"`
	Seq         uint64          `json:"seq,omitempty"`
	SentAt      time.Time       `json:"sent_at,omitzero"`
}

// Room status values.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// BoughtCard records a purchase: the card and the board position it was
// bought from.
type BoughtCard struct {
	Card     deck.Card `json:"card"`
	Position int       `json:"position"`
}

// Room is a lobby room.
type Room struct {
	ID                     string       `json:"id"`
	RoomCode               string       `json:"room_code"`
	HostUserID             string       `json:"host_user_id"`
	Status                 string       `json:"status"`
	MaxPlayers             int          `json:"max_players"`
	CurrentPlayers         int          `json:"current_players"`
	GameState              board.Layout `json:"game_state"`
	CurrentTurnPlayerIndex int          `json:"current_turn_player_index"`
	TurnNumber             int          `json:"turn_number"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

// Player is a seat in a room.
type Player struct {
	ID             string       `json:"id"`
	RoomID         string       `json:"room_id"`
	UserID         string       `json:"user_id"`
	PlayerIndex    int          `json:"player_index"`
	PlayerName     string       `json:"player_name"`
	Color          string       `json:"player_color"`
	Suit           string       `json:"player_suit"`
	Chips          int          `json:"chips"`
	BoardPosition  int          `json:"board_position"`
	CollectedCards []deck.Card  `json:"collected_cards"`
	BoughtCards    []BoughtCard `json:"bought_cards"`
	IsReady        bool         `json:"is_ready"`
	IsConnected    bool         `json:"is_connected"`
	JoinedAt       time.Time    `json:"joined_at"`
}

// Lobby requests

type CreateRoomRequest struct {
	HostUserID string `json:"host_user_id"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

type JoinRoomRequest struct {
	UserID     string `json:"user_id"`
	PlayerName string `json:"player_name"`
}

type JoinRoomResponse struct {
	Room   Room   `json:"room"`
	Player Player `json:"player"`
}

type LeaveRoomRequest struct {
	UserID string `json:"user_id"`
}

type SetReadyRequest struct {
	UserID string `json:"user_id"`
	Ready  bool   `json:"ready"`
}

type StartGameRequest struct {
	HostUserID string `json:"host_user_id"`
}

// Error is the body of every non-2xx lobby response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
