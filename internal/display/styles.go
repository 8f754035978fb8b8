// Package display renders cards, hands, standings and the game event feed
// for the terminal.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/pokeropoly/internal/deck"
)

// Styles holds every style the renderers use.
type Styles struct {
	Border lipgloss.Style

	Header    lipgloss.Style
	Feed      lipgloss.Style
	HandInfo  lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() *Styles {
	return &Styles{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Feed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		HandInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		RedCard: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		BlackCard: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Card renders one card in its suit colour.
func (s *Styles) Card(c deck.Card) string {
	if c.Suit.IsRed() {
		return s.RedCard.Render(c.String())
	}
	return s.BlackCard.Render(c.String())
}

// Cards renders cards as "[A♠ K♥]"; nothing for an empty list.
func (s *Styles) Cards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.IsEmpty() {
			continue
		}
		formatted = append(formatted, s.Card(c))
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
