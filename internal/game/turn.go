package game

// Turn returns the turn pointer and per-turn flags.
func (e *Engine) Turn() Turn {
	return e.turn
}

// CurrentPlayer returns the seat whose turn it is.
func (e *Engine) CurrentPlayer() (int, *Player) {
	return e.players.At(e.turn.Current)
}

// IsTurnOf reports whether the current seat belongs to userID.
func (e *Engine) IsTurnOf(userID string) bool {
	_, p := e.CurrentPlayer()
	return p != nil && p.UserID == userID
}

// CheckRoll gates a local roll: it must be userID's turn, nothing may be
// moving and the player must not have rolled yet.
func (e *Engine) CheckRoll(userID string) error {
	if e.players.Len() == 0 {
		return ErrNoPlayers
	}
	if !e.IsTurnOf(userID) {
		return ErrNotYourTurn
	}
	if e.move != nil {
		return ErrMoveInProgress
	}
	if e.turn.HasRolled {
		return ErrAlreadyRolled
	}
	return nil
}

// NextTurn builds the EndTurn action the current player broadcasts.
func (e *Engine) NextTurn() EndTurn {
	n := e.players.Len()
	if n == 0 {
		return EndTurn{}
	}
	return EndTurn{NextPlayerIndex: (e.players.Resolve(e.turn.Current) + 1) % n}
}
