package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/game"
	"github.com/lox/pokeropoly/internal/hand"
)

// Hands renders every hand GroupAllHands finds in cards, strongest first.
func (s *Styles) Hands(cards []deck.Card) string {
	groups := hand.GroupAllHands(cards)
	if len(groups) == 0 {
		return s.Info.Render("no cards")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Info).
		Headers("#", "Hand", "Cards", "Multiplier", "Penalty")
	for i, g := range groups {
		penalty := hand.PenaltyForHand(hand.Result{Type: g.Type, Cards: g.Cards})
		t.Row(
			strconv.Itoa(i+1),
			s.HandInfo.Render(g.Type.String()),
			s.Cards(g.Cards),
			fmt.Sprintf("%gx", g.Type.Multiplier()),
			strconv.Itoa(penalty),
		)
	}
	return t.Render()
}

// Penalty explains what landing on card costs when its owner holds cards.
func (s *Styles) Penalty(card deck.Card, ownerCards []deck.Card) string {
	a := hand.Penalty(card, ownerCards)

	var b strings.Builder
	fmt.Fprintf(&b, "Landing on %s (price %d)\n", s.Card(card), hand.CardPrice(card.Rank))
	if a.HasHand {
		fmt.Fprintf(&b, "Owner's best hand: %s %s\n", s.HandInfo.Render(a.Hand.Type.String()), s.Cards(a.Hand.Cards))
		fmt.Fprintf(&b, "%s\n", s.Info.Render(hand.Describe(a.Hand.Type)))
	}
	rule := "quarter of the card price"
	if a.InHand {
		rule = "card is part of the owner's best hand"
	}
	fmt.Fprintf(&b, "Penalty: %s (%s)", s.Warning.Render(strconv.Itoa(a.Amount)), rule)
	return b.String()
}

// Standings renders one row per player: chips, position, cards and best
// hand. local is highlighted; pass -1 for none.
func (s *Styles) Standings(snap game.Snapshot, local int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Info).
		Headers("Seat", "Player", "Chips", "Space", "Cards", "Best hand", "Wild").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == local {
				return s.Success
			}
			return lipgloss.NewStyle()
		})

	for i, p := range snap.Players {
		best := "-"
		if r, ok := hand.DetectBestHand(p.Collected); ok {
			best = r.Type.String()
		}
		seat := p.Suit.String()
		if i == snap.Turn.Current {
			seat += " *"
		}
		t.Row(
			seat,
			p.Name,
			strconv.Itoa(p.Chips),
			strconv.Itoa(p.Position),
			s.Cards(p.Collected),
			best,
			strconv.Itoa(len(p.WildCards)),
		)
	}

	header := s.Header.Render(fmt.Sprintf("Turn %d", snap.Turn.Number))
	return lipgloss.JoinVertical(lipgloss.Left, header, t.Render())
}
