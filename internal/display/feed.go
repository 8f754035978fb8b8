package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/lox/pokeropoly/internal/game"
)

// Feed writes one styled line per game event. Movement steps are skipped;
// the landing line covers them.
type Feed struct {
	w      io.Writer
	styles *Styles
	names  []string

	mu sync.Mutex
}

var _ game.EventSubscriber = (*Feed)(nil)

// NewFeed writes to w. names maps player indexes to display names.
func NewFeed(w io.Writer, styles *Styles, names []string) *Feed {
	return &Feed{w: w, styles: styles, names: names}
}

func (f *Feed) name(i int) string {
	if i >= 0 && i < len(f.names) {
		return f.names[i]
	}
	return fmt.Sprintf("Player %d", i+1)
}

// OnEvent implements game.EventSubscriber.
func (f *Feed) OnEvent(event game.GameEvent) {
	line := f.format(event)
	if line == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintln(f.w, line)
}

func (f *Feed) format(event game.GameEvent) string {
	s := f.styles
	switch e := event.(type) {
	case game.LandedEvent:
		msg := fmt.Sprintf("%s landed on %d (%s)", f.name(e.PlayerIndex), e.Position, e.Kind)
		if !e.Card.IsEmpty() {
			msg += " " + s.Card(e.Card)
		}
		return s.Feed.Render(msg)
	case game.WildCardGainedEvent:
		return s.Success.Render(fmt.Sprintf("%s gained a wildcard until space %d", f.name(e.PlayerIndex), e.WildCard.ExpiresAt))
	case game.WildCardExpiredEvent:
		return s.Info.Render(fmt.Sprintf("%s's wildcard expired", f.name(e.PlayerIndex)))
	case game.CardBoughtEvent:
		return s.Success.Render(fmt.Sprintf("%s bought %s for %d", f.name(e.PlayerIndex), e.Card, e.Price))
	case game.PenaltyPaidEvent:
		return s.Warning.Render(fmt.Sprintf("%s paid %s %d", f.name(e.PayerIndex), f.name(e.ReceiverIndex), e.Paid))
	case game.TurnEndedEvent:
		return s.Info.Render(fmt.Sprintf("turn %d: %s to play", e.TurnNumber, f.name(e.To)))
	case game.AuctionStartedEvent:
		return s.Warning.Render(fmt.Sprintf("%s auctions %s", f.name(e.InitiatorIndex), e.Card))
	case game.BidPlacedEvent:
		return s.Feed.Render(fmt.Sprintf("%s bids %d", f.name(e.BidderIndex), e.Amount))
	case game.AuctionEndedEvent:
		if e.WinnerIndex < 0 {
			return s.Info.Render(fmt.Sprintf("auction for %s closed without bids", e.Card))
		}
		return s.Success.Render(fmt.Sprintf("%s won %s for %d", f.name(e.WinnerIndex), e.Card, e.WinningBid))
	}
	return ""
}
