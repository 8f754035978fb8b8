package game

import (
	"fmt"

	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/hand"
	"github.com/lox/pokeropoly/internal/protocol"
)

// Apply runs one action sent by player sender. Local actions and queued
// remote actions both come through here. Guard failures return a sentinel
// error and leave state untouched.
func (e *Engine) Apply(sender int, a Action) error {
	if e.players.Len() == 0 {
		return ErrNoPlayers
	}
	switch a := a.(type) {
	case RollDice:
		if err := e.rules.checkRoll(a.Total); err != nil {
			return err
		}
		return e.StartMove(sender, a.Total)
	case BuyCard:
		return e.applyBuy(a)
	case EndTurn:
		return e.applyEndTurn(a)
	case PayPenalty:
		return e.applyPenalty(a)
	case StartAuction:
		return e.applyStartAuction(sender, a)
	case PlaceBid:
		return e.applyBid(sender, a)
	case EndAuction:
		return e.applyEndAuction(a)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// applyBuy is first-applied-wins per position: an owned position or a
// repeat of the same card and position is a no-op.
func (e *Engine) applyBuy(a BuyCard) error {
	pos := board.Wrap(a.Position)
	if err := e.checkDealt(pos, a.Card); err != nil {
		return err
	}
	idx, p := e.resolve(a.PlayerIndex, "buyCard")

	if owner, ok := e.owners[pos]; ok {
		e.logger.Debug("card already owned", "position", pos, "owner", owner, "buyer", idx)
		return ErrAlreadyOwned
	}
	if p.HasBought(a.Card, pos) {
		e.logger.Debug("duplicate buy", "position", pos, "card", a.Card, "buyer", idx)
		return ErrDuplicateBuy
	}
	if a.Price < 0 {
		return fmt.Errorf("%w: price %d", ErrInvalidAmount, a.Price)
	}

	e.owners[pos] = idx
	p.Collected = append(p.Collected, a.Card)
	p.Bought = append(p.Bought, protocol.BoughtCard{Card: a.Card, Position: pos})
	p.Debit(a.Price)
	if e.purchase != nil && e.purchase.Position == pos {
		e.purchase = nil
	}

	e.logger.Info("card bought", "player", idx, "card", a.Card, "position", pos, "price", a.Price, "chips", p.Chips)
	e.publish(CardBoughtEvent{stamp: e.now(), PlayerIndex: idx, Position: pos, Card: a.Card, Price: a.Price, ChipsAfter: p.Chips})
	return nil
}

// checkDealt rejects actions naming a position that is not a card space or
// a card other than the one dealt there.
func (e *Engine) checkDealt(pos int, c deck.Card) error {
	dealt, ok := e.layout.CardAt(pos)
	if board.Classify(pos) != board.CardSpace || !ok || dealt != c {
		e.logger.Warn("action names a card not on the board", "position", pos, "card", c)
		return fmt.Errorf("%w: %s at %d", ErrUnknownCard, c, pos)
	}
	return nil
}

func (e *Engine) applyEndTurn(a EndTurn) error {
	from := e.turn.Current
	e.turn.Current = e.players.Resolve(a.NextPlayerIndex)
	e.turn.Number++
	e.turn.HasRolled = false
	e.clearPrompts()

	e.logger.Debug("turn ended", "from", from, "to", e.turn.Current, "turn", e.turn.Number)
	e.publish(TurnEndedEvent{stamp: e.now(), From: from, To: e.turn.Current, TurnNumber: e.turn.Number})
	return nil
}

func (e *Engine) applyPenalty(a PayPenalty) error {
	if a.Amount < 0 {
		return fmt.Errorf("%w: penalty %d", ErrInvalidAmount, a.Amount)
	}
	payerIdx, payer := e.resolve(a.PayerIndex, "payPenalty")
	receiverIdx, receiver := e.resolve(a.ReceiverIndex, "payPenalty")

	paid := payer.Debit(a.Amount)
	receiver.Credit(a.Amount)
	if e.penalty != nil && e.penalty.PayerIndex == payerIdx {
		e.penalty = nil
	}

	e.logger.Info("penalty paid", "payer", payerIdx, "receiver", receiverIdx, "amount", a.Amount, "paid", paid)
	e.publish(PenaltyPaidEvent{stamp: e.now(), PayerIndex: payerIdx, ReceiverIndex: receiverIdx, Amount: a.Amount, Paid: paid})
	return nil
}

func (e *Engine) applyStartAuction(sender int, a StartAuction) error {
	pos := board.Wrap(a.Position)
	if err := e.checkDealt(pos, a.Card); err != nil {
		return err
	}
	idx, _ := e.resolve(sender, "startAuction")
	e.auction = &Auction{
		Card:           a.Card,
		Position:       pos,
		Price:          hand.CardPrice(a.Card.Rank),
		InitiatorIndex: idx,
	}
	e.purchase = nil

	e.logger.Info("auction started", "initiator", idx, "card", a.Card, "position", pos)
	e.publish(AuctionStartedEvent{stamp: e.now(), InitiatorIndex: idx, Card: a.Card, Position: pos})
	return nil
}

func (e *Engine) applyBid(sender int, a PlaceBid) error {
	if e.auction == nil {
		return ErrNoAuction
	}
	idx, p := e.resolve(sender, "placeBid")

	switch floor := e.rules.reserve(e.auction.Price); {
	case a.Amount <= 0:
		return fmt.Errorf("%w: bid %d must be positive", ErrBidRejected, a.Amount)
	case a.Amount < floor:
		return fmt.Errorf("%w: bid %d below reserve %d", ErrBidRejected, a.Amount, floor)
	case a.Amount > p.Chips:
		return fmt.Errorf("%w: bid %d exceeds %d chips", ErrBidRejected, a.Amount, p.Chips)
	}

	e.auction.place(idx, a.Amount)
	e.logger.Debug("bid placed", "bidder", idx, "amount", a.Amount)
	e.publish(BidPlacedEvent{stamp: e.now(), BidderIndex: idx, Amount: a.Amount})
	return nil
}

// applyEndAuction applies the initiator's result on every client, the
// initiator included.
func (e *Engine) applyEndAuction(a EndAuction) error {
	var err error
	if a.WinnerIndex >= 0 && a.WinningBid > 0 {
		err = e.applyBuy(BuyCard{Position: a.Position, Card: a.Card, Price: a.WinningBid, PlayerIndex: a.WinnerIndex})
	}
	e.auction = nil
	e.purchase = nil

	e.logger.Info("auction ended", "winner", a.WinnerIndex, "bid", a.WinningBid, "position", a.Position)
	e.publish(AuctionEndedEvent{stamp: e.now(), WinnerIndex: a.WinnerIndex, WinningBid: a.WinningBid, Card: a.Card, Position: board.Wrap(a.Position)})
	return err
}
