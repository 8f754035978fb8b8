package game

import "errors"

var (
	ErrNoPlayers         = errors.New("game: roster is empty")
	ErrNotSeated         = errors.New("game: local user is not in the roster")
	ErrNotYourTurn       = errors.New("game: not your turn")
	ErrAlreadyRolled     = errors.New("game: already rolled this turn")
	ErrMoveInProgress    = errors.New("game: movement in progress")
	ErrInvalidRoll       = errors.New("game: roll total out of range")
	ErrInvalidAmount     = errors.New("game: amount must not be negative")
	ErrAlreadyOwned      = errors.New("game: position already owned")
	ErrDuplicateBuy      = errors.New("game: card already bought by player")
	ErrUnknownCard       = errors.New("game: no such card on the board")
	ErrInsufficientChips = errors.New("game: insufficient chips")
	ErrNothingPending    = errors.New("game: no pending decision")
	ErrNoAuction         = errors.New("game: no auction in progress")
	ErrAuctionOpen       = errors.New("game: auction already in progress")
	ErrBidRejected       = errors.New("game: bid rejected")
	ErrNotAuctioneer     = errors.New("game: only the auction initiator can close it")
	ErrUnknownAction     = errors.New("game: unknown action")
	ErrSessionClosed     = errors.New("game: session closed")
)

// isNoop reports whether err is one of the guard errors that duplicate or
// racing deliveries are expected to trigger.
func isNoop(err error) bool {
	return errors.Is(err, ErrAlreadyOwned) ||
		errors.Is(err, ErrDuplicateBuy) ||
		errors.Is(err, ErrMoveInProgress)
}
