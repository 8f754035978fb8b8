package game

import (
	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/hand"
)

// LandingKind classifies where a move finished.
type LandingKind int

const (
	LandedCorner LandingKind = iota
	LandedMystery
	LandedUnowned
	LandedOwnSpace
	LandedOwnedByOther
	LandedEmpty
)

var landingNames = [...]string{
	LandedCorner:       "corner",
	LandedMystery:      "mystery",
	LandedUnowned:      "unowned",
	LandedOwnSpace:     "own",
	LandedOwnedByOther: "owned",
	LandedEmpty:        "empty",
}

func (k LandingKind) String() string {
	if k < 0 || int(k) >= len(landingNames) {
		return "unknown"
	}
	return landingNames[k]
}

// Landing describes the space a move finished on.
type Landing struct {
	PlayerIndex int
	Position    int
	Kind        LandingKind
	Card        deck.Card
	OwnerIndex  int
}

type movement struct {
	player int
	from   int
	total  int
	made   int
}

// Moving reports whether a move is in flight.
func (e *Engine) Moving() bool {
	return e.move != nil
}

// StartMove begins moving player total spaces. The move advances one
// space per Step.
func (e *Engine) StartMove(player, total int) error {
	if total <= 0 {
		return ErrInvalidRoll
	}
	if e.move != nil {
		return ErrMoveInProgress
	}
	idx, p := e.resolve(player, "move")
	if p == nil {
		return ErrNoPlayers
	}

	e.move = &movement{player: idx, from: p.Position, total: total}
	e.turn.HasRolled = true
	e.clearPrompts()
	e.logger.Debug("move started", "player", idx, "from", p.Position, "total", total)
	return nil
}

// Step advances the in-flight move one space, expiring wildcards that
// reach their lap. It returns true once the move has finished and the
// landing space has been resolved, or when nothing is moving.
func (e *Engine) Step() bool {
	m := e.move
	if m == nil {
		return true
	}
	_, p := e.players.At(m.player)
	if p == nil {
		e.move = nil
		return true
	}

	m.made++
	pos := board.Wrap(m.from + m.made)
	p.Position = pos
	e.expire(m.player, p, pos)
	e.publish(MovedEvent{stamp: e.now(), PlayerIndex: m.player, Position: pos, Step: m.made, Total: m.total})

	if m.made < m.total {
		return false
	}
	e.move = nil
	e.land(m.player, p, pos)
	return true
}

// FinishMove runs the remaining steps of the current move at once.
func (e *Engine) FinishMove() {
	for !e.Step() {
	}
}

func (e *Engine) expire(idx int, p *Player, pos int) {
	for _, wc := range p.expireWildCards(pos) {
		e.logger.Debug("wildcard expired", "player", idx, "position", pos)
		e.publish(WildCardExpiredEvent{stamp: e.now(), PlayerIndex: idx, WildCard: wc})
	}
}

func (e *Engine) land(idx int, p *Player, pos int) {
	l := Landing{PlayerIndex: idx, Position: pos, OwnerIndex: -1}

	switch board.Classify(pos) {
	case board.Corner:
		l.Kind = LandedCorner
	case board.Mystery:
		l.Kind = LandedMystery
		e.expire(idx, p, pos)
		wc := NewWildCard(pos)
		p.WildCards = append(p.WildCards, wc)
		e.publish(WildCardGainedEvent{stamp: e.now(), PlayerIndex: idx, WildCard: wc})
	default:
		card, ok := e.layout.CardAt(pos)
		if !ok {
			e.logger.Warn("landed on card space with no dealt card", "position", pos)
			l.Kind = LandedEmpty
			break
		}
		l.Card = card
		owner, owned := e.owners[pos]
		switch {
		case !owned:
			l.Kind = LandedUnowned
			e.purchase = &Purchase{PlayerIndex: idx, Position: pos, Card: card, Price: hand.CardPrice(card.Rank)}
		case owner == idx:
			l.Kind = LandedOwnSpace
			l.OwnerIndex = owner
		default:
			l.Kind = LandedOwnedByOther
			l.OwnerIndex = owner
			e.penalty = e.assess(idx, p, owner, pos, card)
		}
	}

	e.logger.Debug("landed", "player", idx, "position", pos, "kind", l.Kind)
	e.publish(LandedEvent{stamp: e.now(), Landing: l})
}

func (e *Engine) assess(payerIdx int, payer *Player, owner, pos int, card deck.Card) *PenaltyDue {
	ownerIdx, ownerP := e.resolve(owner, "penalty")
	a := hand.Penalty(card, ownerP.Collected)
	due := &PenaltyDue{
		PayerIndex: payerIdx,
		OwnerIndex: ownerIdx,
		Position:   pos,
		Card:       card,
		Amount:     a.Amount,
		InHand:     a.InHand,
		CanCover:   payer.Chips >= a.Amount,
	}
	if a.HasHand {
		due.Hand = a.Hand.Type
		due.HandCards = a.Hand.Cards
	}
	return due
}
