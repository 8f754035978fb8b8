package game

import (
	"testing"

	"github.com/lox/pokeropoly/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAuction(t *testing.T, players []*Player, initiator int) *Engine {
	t.Helper()
	e, _ := newTestEngine(testLayout(map[int]deck.Card{7: tenOfHearts}), players...)
	require.NoError(t, e.Apply(initiator, StartAuction{Card: tenOfHearts, Position: 7}))
	return e
}

func TestAuctionTieGoesToFirstBidder(t *testing.T) {
	players := testPlayers(3)
	e := openAuction(t, players, 2)

	require.NoError(t, e.Apply(0, PlaceBid{Amount: 500}))
	require.NoError(t, e.Apply(1, PlaceBid{Amount: 500}))

	result, err := e.CloseAuction(2)
	require.NoError(t, err)
	assert.Equal(t, EndAuction{WinnerIndex: 0, WinningBid: 500, Card: tenOfHearts, Position: 7}, result)

	assert.Equal(t, StartingChips-500, players[0].Chips)
	assert.Equal(t, StartingChips, players[1].Chips)
	owner, ok := e.Owner(7)
	require.True(t, ok)
	assert.Equal(t, 0, owner)
	_, open := e.Auction()
	assert.False(t, open)
}

func TestAuctionRaiseKeepsSlot(t *testing.T) {
	e := openAuction(t, testPlayers(3), 2)

	require.NoError(t, e.Apply(0, PlaceBid{Amount: 300}))
	require.NoError(t, e.Apply(1, PlaceBid{Amount: 700}))
	require.NoError(t, e.Apply(0, PlaceBid{Amount: 700}))

	a, ok := e.Auction()
	require.True(t, ok)
	assert.Equal(t, []Bid{{PlayerIndex: 0, Amount: 700}, {PlayerIndex: 1, Amount: 700}}, a.Bids)
	winner, amount := a.Winner()
	assert.Equal(t, 0, winner)
	assert.Equal(t, 700, amount)
}

func TestAuctionRejectsBadBids(t *testing.T) {
	players := testPlayers(2)
	players[1].Chips = 200
	e, _ := newTestEngine(testLayout(map[int]deck.Card{7: tenOfHearts}), players...)

	assert.ErrorIs(t, e.Apply(0, PlaceBid{Amount: 100}), ErrNoAuction)

	require.NoError(t, e.Apply(0, StartAuction{Card: tenOfHearts, Position: 7}))
	assert.ErrorIs(t, e.Apply(0, PlaceBid{Amount: 0}), ErrBidRejected)
	assert.ErrorIs(t, e.Apply(0, PlaceBid{Amount: -10}), ErrBidRejected)
	assert.ErrorIs(t, e.Apply(1, PlaceBid{Amount: 201}), ErrBidRejected)
	require.NoError(t, e.Apply(1, PlaceBid{Amount: 200}))

	a, _ := e.Auction()
	assert.Len(t, a.Bids, 1)
}

func TestAuctionReserve(t *testing.T) {
	e := NewEngine(EngineConfig{
		Layout:  testLayout(map[int]deck.Card{7: tenOfHearts}),
		Players: NewRegistry(testPlayers(2)...),
		Rules:   Rules{AuctionReserve: 0.5},
		Logger:  testLogger(),
	})
	require.NoError(t, e.Apply(0, StartAuction{Card: tenOfHearts, Position: 7}))

	assert.ErrorIs(t, e.Apply(1, PlaceBid{Amount: 499}), ErrBidRejected)
	assert.NoError(t, e.Apply(1, PlaceBid{Amount: 500}))
}

func TestOnlyInitiatorCloses(t *testing.T) {
	e := openAuction(t, testPlayers(3), 1)

	_, err := e.CloseAuction(0)
	assert.ErrorIs(t, err, ErrNotAuctioneer)
	_, open := e.Auction()
	assert.True(t, open)

	_, err = e.CloseAuction(1)
	require.NoError(t, err)
	_, err = e.CloseAuction(1)
	assert.ErrorIs(t, err, ErrNoAuction)
}

func TestAuctionWithoutBidsLeavesCardUnowned(t *testing.T) {
	players := testPlayers(2)
	e := openAuction(t, players, 0)

	result, err := e.CloseAuction(0)
	require.NoError(t, err)
	assert.Equal(t, NoWinner, result.WinnerIndex)
	assert.Zero(t, result.WinningBid)

	_, owned := e.Owner(7)
	assert.False(t, owned)
	assert.Equal(t, StartingChips, players[0].Chips)
}

func TestRemoteEndAuctionMatchesInitiator(t *testing.T) {
	initiatorPlayers, remotePlayers := testPlayers(2), testPlayers(2)
	initiator := openAuction(t, initiatorPlayers, 0)
	remote := openAuction(t, remotePlayers, 0)

	for _, e := range []*Engine{initiator, remote} {
		require.NoError(t, e.Apply(1, PlaceBid{Amount: 1200}))
	}
	result, err := initiator.CloseAuction(0)
	require.NoError(t, err)
	require.NoError(t, remote.Apply(0, result))

	assert.Equal(t, initiator.Snapshot().Players, remote.Snapshot().Players)
	assert.Equal(t, initiator.Snapshot().Owners, remote.Snapshot().Owners)
	assert.Equal(t, StartingChips-1200, remotePlayers[1].Chips)
}

func TestStartAuctionClearsPurchase(t *testing.T) {
	players := testPlayers(2)
	e, rec := newTestEngine(testLayout(map[int]deck.Card{7: tenOfHearts}), players...)
	require.NoError(t, e.StartMove(0, 7))
	e.FinishMove()
	_, pending := e.PendingPurchase()
	require.True(t, pending)

	require.NoError(t, e.Apply(0, StartAuction{Card: tenOfHearts, Position: 7}))
	_, pending = e.PendingPurchase()
	assert.False(t, pending)

	a, ok := e.Auction()
	require.True(t, ok)
	assert.Equal(t, 1000, a.Price)
	assert.Equal(t, 0, a.InitiatorIndex)
	assert.Len(t, rec.ofType(EventTypeAuctionStarted), 1)
}
