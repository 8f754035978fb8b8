package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/display"
)

// HandCmd groups a card collection into poker hands and, with --landing,
// prices the penalty for landing on one of the cards.
type HandCmd struct {
	Cards   []string `arg:"" help:"Cards like As 10h Kd, or a run like AsKsQs"`
	Landing string   `help:"Card landed on; prices the penalty against the collection"`
}

func (c *HandCmd) Run() error {
	cards, err := deck.ParseCards(strings.Join(c.Cards, ""))
	if err != nil {
		return err
	}

	styles := display.DefaultStyles()
	fmt.Fprintln(os.Stdout, styles.Hands(cards))

	if c.Landing == "" {
		return nil
	}
	landed, err := deck.ParseCards(c.Landing)
	if err != nil {
		return err
	}
	if len(landed) != 1 {
		return fmt.Errorf("--landing takes exactly one card, got %d", len(landed))
	}
	fmt.Fprintln(os.Stdout, styles.Border.Render(styles.Penalty(landed[0], cards)))
	return nil
}
