package game

import "context"

// react schedules the next autoplay decision after any state change.
func (s *Session) react() {
	if s.cfg.Autoplay && s.localIndex() >= 0 {
		s.arm(timerAutoplay, s.cfg.AutoplayDelay)
	}
}

// autoplay makes one decision for the local player: settle a penalty, take
// or refuse a purchase, close an auction it started, otherwise roll or end
// the turn. Bidding is left to humans.
func (s *Session) autoplay(ctx context.Context) {
	local := s.localIndex()
	if local < 0 || s.engine.Moving() {
		return
	}

	var err error
	switch {
	case s.owesPenalty(local):
		err = s.payPenalty(ctx)
	case s.hasPurchase(local):
		purchase, _ := s.engine.PendingPurchase()
		if _, p := s.engine.players.At(local); p.Chips >= purchase.Price {
			err = s.buy(ctx)
		} else {
			err = s.decline(ctx)
		}
	case s.runsAuction(local):
		err = s.closeAuction(ctx)
	case !s.engine.IsTurnOf(s.cfg.UserID):
		return
	case s.isArmed(timerEndTurn):
		return
	case !s.engine.Turn().HasRolled:
		_, err = s.rollDice(ctx)
	default:
		err = s.endTurn(ctx)
	}
	if err != nil {
		s.logger.Warn("autoplay step failed", "error", err)
	}
}

func (s *Session) owesPenalty(local int) bool {
	due, ok := s.engine.PendingPenalty()
	return ok && due.PayerIndex == local
}

func (s *Session) hasPurchase(local int) bool {
	p, ok := s.engine.PendingPurchase()
	return ok && p.PlayerIndex == local
}

func (s *Session) runsAuction(local int) bool {
	a, ok := s.engine.Auction()
	return ok && a.InitiatorIndex == local
}

func (s *Session) isArmed(kind timerKind) bool {
	_, ok := s.armed[kind]
	return ok
}
