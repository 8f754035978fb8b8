package game

import (
	"slices"

	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/hand"
	"github.com/lox/pokeropoly/internal/protocol"
)

// StartingChips is every player's balance when they take a seat.
const StartingChips = 10000

// WildCard is a temporary token granted on a mystery space. It expires when
// its holder next stands on ExpiresAt, one full lap later.
type WildCard struct {
	AcquiredAt int `json:"acquiredAtPosition"`
	ExpiresAt  int `json:"expiresAtPosition"`
}

// NewWildCard anchors a wildcard at pos.
func NewWildCard(pos int) WildCard {
	return WildCard{AcquiredAt: pos, ExpiresAt: board.Wrap(pos + board.Spaces)}
}

// Player is one seat's state as every client believes it to be.
type Player struct {
	UserID    string                `json:"userId"`
	Name      string                `json:"name"`
	Chips     int                   `json:"chips"`
	Color     string                `json:"color"`
	Suit      deck.Suit             `json:"suit"`
	Position  int                   `json:"boardPosition"`
	Collected []deck.Card           `json:"collectedCards"`
	Bought    []protocol.BoughtCard `json:"boughtCards"`
	WildCards []WildCard            `json:"wildCards"`
}

// PlayerFromRoster builds a player from its lobby record.
func PlayerFromRoster(rp protocol.Player) *Player {
	suit, err := deck.ParseSuit(rp.Suit)
	if err != nil {
		suit = deck.Suits[ResolveIndex(rp.PlayerIndex, len(deck.Suits))]
	}
	return &Player{
		UserID:    rp.UserID,
		Name:      rp.PlayerName,
		Chips:     max(rp.Chips, 0),
		Color:     rp.Color,
		Suit:      suit,
		Position:  board.Wrap(rp.BoardPosition),
		Collected: slices.Clone(rp.CollectedCards),
		Bought:    slices.Clone(rp.BoughtCards),
	}
}

// Debit removes amount from the balance, stopping at zero. It returns what
// was actually taken.
func (p *Player) Debit(amount int) int {
	if amount <= 0 {
		return 0
	}
	taken := min(amount, p.Chips)
	p.Chips -= taken
	return taken
}

// Credit adds amount to the balance.
func (p *Player) Credit(amount int) {
	if amount > 0 {
		p.Chips += amount
	}
}

// HasBought reports whether the player already bought card at pos.
func (p *Player) HasBought(card deck.Card, pos int) bool {
	return slices.Contains(p.Bought, protocol.BoughtCard{Card: card, Position: pos})
}

// BestHand is the strongest hand in the player's collection.
func (p *Player) BestHand() (hand.Result, bool) {
	return hand.DetectBestHand(p.Collected)
}

// HandGroups partitions the collection into disjoint hands.
func (p *Player) HandGroups() []hand.Group {
	return hand.GroupAllHands(p.Collected)
}

// expireWildCards drops every wildcard that expires at pos and returns them.
func (p *Player) expireWildCards(pos int) []WildCard {
	var expired []WildCard
	p.WildCards = slices.DeleteFunc(p.WildCards, func(wc WildCard) bool {
		if wc.ExpiresAt == pos {
			expired = append(expired, wc)
			return true
		}
		return false
	})
	return expired
}

func (p *Player) clone() Player {
	c := *p
	c.Collected = slices.Clone(p.Collected)
	c.Bought = slices.Clone(p.Bought)
	c.WildCards = slices.Clone(p.WildCards)
	return c
}
