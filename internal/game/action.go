package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/protocol"
)

// NoWinner is the EndAuction winner index when nobody bid.
const NoWinner = -1

// Action is one of the turn actions below. The set is closed; Engine.Apply
// switches over it.
type Action interface {
	Type() protocol.ActionType
	isAction()
}

// RollDice moves the sending player Total spaces.
type RollDice struct {
	Total  int  `json:"total"`
	IsPair bool `json:"isPair"`
}

// BuyCard claims the card at Position for PlayerIndex.
type BuyCard struct {
	Position    int       `json:"position"`
	Card        deck.Card `json:"card"`
	Price       int       `json:"price"`
	PlayerIndex int       `json:"player_index"`
}

// EndTurn hands the turn to NextPlayerIndex.
type EndTurn struct {
	NextPlayerIndex int `json:"next_player_index"`
}

// PayPenalty moves Amount from payer to receiver.
type PayPenalty struct {
	PayerIndex    int `json:"payerIndex"`
	ReceiverIndex int `json:"receiverIndex"`
	Amount        int `json:"amount"`
}

// StartAuction opens bidding on an unclaimed card. The sender is the
// initiator.
type StartAuction struct {
	Card     deck.Card `json:"card"`
	Position int       `json:"position"`
}

// PlaceBid records the sender's bid.
type PlaceBid struct {
	Amount int `json:"bidAmount"`
}

// EndAuction announces the initiator's result.
type EndAuction struct {
	WinnerIndex int       `json:"winnerIndex"`
	WinningBid  int       `json:"winningBid"`
	Card        deck.Card `json:"card"`
	Position    int       `json:"position"`
}

func (RollDice) Type() protocol.ActionType     { return protocol.ActionRollDice }
func (BuyCard) Type() protocol.ActionType      { return protocol.ActionBuyCard }
func (EndTurn) Type() protocol.ActionType      { return protocol.ActionEndTurn }
func (PayPenalty) Type() protocol.ActionType   { return protocol.ActionPayPenalty }
func (StartAuction) Type() protocol.ActionType { return protocol.ActionStartAuction }
func (PlaceBid) Type() protocol.ActionType     { return protocol.ActionPlaceBid }
func (EndAuction) Type() protocol.ActionType   { return protocol.ActionEndAuction }

func (RollDice) isAction()     {}
func (BuyCard) isAction()      {}
func (EndTurn) isAction()      {}
func (PayPenalty) isAction()   {}
func (StartAuction) isAction() {}
func (PlaceBid) isAction()     {}
func (EndAuction) isAction()   {}

// Encode wraps an action in a wire envelope. Origin and Seq are left for
// the sending session to fill.
func Encode(userID string, playerIndex int, a Action) (protocol.Envelope, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	return protocol.Envelope{
		UserID:      userID,
		PlayerIndex: playerIndex,
		ActionType:  a.Type(),
		ActionData:  data,
	}, nil
}

// Decode extracts the typed action from an envelope.
func Decode(env protocol.Envelope) (Action, error) {
	switch env.ActionType {
	case protocol.ActionRollDice:
		return decodeAs[RollDice](env)
	case protocol.ActionBuyCard:
		return decodeAs[BuyCard](env)
	case protocol.ActionEndTurn:
		return decodeAs[EndTurn](env)
	case protocol.ActionPayPenalty:
		return decodeAs[PayPenalty](env)
	case protocol.ActionStartAuction:
		return decodeAs[StartAuction](env)
	case protocol.ActionPlaceBid:
		return decodeAs[PlaceBid](env)
	case protocol.ActionEndAuction:
		return decodeAs[EndAuction](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.ActionType)
	}
}

func decodeAs[T Action](env protocol.Envelope) (Action, error) {
	var a T
	if len(env.ActionData) == 0 || string(env.ActionData) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(env.ActionData, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.ActionType, err)
	}
	return a, nil
}
