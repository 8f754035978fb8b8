package game

import (
	"encoding/json"
	"testing"

	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	actions := []Action{
		RollDice{Total: 8, IsPair: true},
		BuyCard{Position: 7, Card: tenOfHearts, Price: 1000, PlayerIndex: 1},
		EndTurn{NextPlayerIndex: 2},
		PayPenalty{PayerIndex: 0, ReceiverIndex: 1, Amount: 362},
		StartAuction{Card: kingOfSpades, Position: 20},
		PlaceBid{Amount: 450},
		EndAuction{WinnerIndex: NoWinner, Card: kingOfSpades, Position: 20},
	}

	for _, a := range actions {
		t.Run(string(a.Type()), func(t *testing.T) {
			env, err := Encode("alice", 1, a)
			require.NoError(t, err)
			assert.Equal(t, "alice", env.UserID)
			assert.Equal(t, 1, env.PlayerIndex)
			assert.Equal(t, a.Type(), env.ActionType)

			got, err := Decode(env)
			require.NoError(t, err)
			assert.Equal(t, a, got)
		})
	}
}

func TestActionWireNames(t *testing.T) {
	env, err := Encode("bob", 0, BuyCard{Position: 3, Card: tenOfHearts, Price: 1000, PlayerIndex: 0})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(env.ActionData, &raw))
	assert.Contains(t, raw, "player_index")
	assert.Contains(t, raw, "position")

	env, err = Encode("bob", 0, EndTurn{NextPlayerIndex: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"next_player_index":1}`, string(env.ActionData))

	env, err = Encode("bob", 0, PlaceBid{Amount: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bidAmount":5}`, string(env.ActionData))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(protocol.Envelope{ActionType: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Decode(protocol.Envelope{ActionType: protocol.ActionRollDice, ActionData: json.RawMessage(`{"total":"six"}`)})
	assert.Error(t, err)

	got, err := Decode(protocol.Envelope{ActionType: protocol.ActionEndTurn})
	require.NoError(t, err)
	assert.Equal(t, EndTurn{}, got)

	got, err = Decode(protocol.Envelope{ActionType: protocol.ActionPlaceBid, ActionData: json.RawMessage(`null`)})
	require.NoError(t, err)
	assert.Equal(t, PlaceBid{}, got)
}
