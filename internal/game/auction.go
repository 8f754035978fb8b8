package game

import (
	"slices"

	"github.com/lox/pokeropoly/internal/deck"
)

// Bid is one player's standing bid.
type Bid struct {
	PlayerIndex int `json:"playerIndex"`
	Amount      int `json:"amount"`
}

// Auction is an open auction. Bids keep first-insertion order; a player
// raising their bid keeps their original slot.
type Auction struct {
	Card           deck.Card `json:"card"`
	Position       int       `json:"position"`
	Price          int       `json:"price"`
	InitiatorIndex int       `json:"initiatorIndex"`
	Bids           []Bid     `json:"bids"`
}

func (a *Auction) place(player, amount int) {
	for i := range a.Bids {
		if a.Bids[i].PlayerIndex == player {
			a.Bids[i].Amount = amount
			return
		}
	}
	a.Bids = append(a.Bids, Bid{PlayerIndex: player, Amount: amount})
}

// BidOf returns player's standing bid.
func (a Auction) BidOf(player int) (int, bool) {
	for _, b := range a.Bids {
		if b.PlayerIndex == player {
			return b.Amount, true
		}
	}
	return 0, false
}

// Winner scans bids in insertion order keeping the strictly highest, so
// the earliest of tied bidders wins. With no positive bid the winner is
// NoWinner.
func (a Auction) Winner() (player, amount int) {
	player = NoWinner
	for _, b := range a.Bids {
		if b.Amount > amount {
			player, amount = b.PlayerIndex, b.Amount
		}
	}
	return player, amount
}

func (a *Auction) clone() Auction {
	c := *a
	c.Bids = slices.Clone(a.Bids)
	return c
}

// CloseAuction computes the result on the initiator's client and applies
// it locally. The returned action is what the initiator broadcasts.
func (e *Engine) CloseAuction(local int) (EndAuction, error) {
	if e.auction == nil {
		return EndAuction{}, ErrNoAuction
	}
	if e.players.Resolve(local) != e.auction.InitiatorIndex {
		return EndAuction{}, ErrNotAuctioneer
	}

	winner, bid := e.auction.Winner()
	result := EndAuction{
		WinnerIndex: winner,
		WinningBid:  bid,
		Card:        e.auction.Card,
		Position:    e.auction.Position,
	}
	return result, e.applyEndAuction(result)
}
