package game

import (
	"fmt"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/hand"
)

// Rules are the tunable parts of the reducer.
type Rules struct {
	// AuctionReserve is the minimum bid as a fraction of the card price.
	// Zero accepts any positive bid.
	AuctionReserve float64
	// MaxRoll caps the total of a rollDice action. Zero means two dice.
	MaxRoll int
}

// DefaultRules returns the standard rules.
func DefaultRules() Rules {
	return Rules{}
}

// MinRoll and DiceMax bound a roll of two six-sided dice.
const (
	MinRoll = 2
	DiceMax = 12
)

func (r Rules) checkRoll(total int) error {
	limit := r.MaxRoll
	if limit <= 0 {
		limit = DiceMax
	}
	if total < MinRoll || total > limit {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRoll, total, MinRoll, limit)
	}
	return nil
}

func (r Rules) reserve(price int) int {
	if r.AuctionReserve <= 0 {
		return 0
	}
	return int(float64(price) * r.AuctionReserve)
}

// Turn is the shared turn pointer plus the per-turn flags.
type Turn struct {
	Current   int  `json:"current"`
	Number    int  `json:"number"`
	HasRolled bool `json:"hasRolled"`
}

// Purchase is the buy/decline prompt raised by landing on an unowned card.
type Purchase struct {
	PlayerIndex int       `json:"playerIndex"`
	Position    int       `json:"position"`
	Card        deck.Card `json:"card"`
	Price       int       `json:"price"`
}

// PenaltyDue is the pay prompt raised by landing on another player's card.
// CanCover is false when the payer's chips fall short; the payment still
// goes through but the debit stops at zero.
type PenaltyDue struct {
	PayerIndex int         `json:"payerIndex"`
	OwnerIndex int         `json:"ownerIndex"`
	Position   int         `json:"position"`
	Card       deck.Card   `json:"card"`
	Amount     int         `json:"amount"`
	Hand       hand.Type   `json:"hand"`
	HandCards  []deck.Card `json:"handCards"`
	InHand     bool        `json:"inHand"`
	CanCover   bool        `json:"canCover"`
}

// EngineConfig configures a new Engine.
type EngineConfig struct {
	Layout  board.Layout
	Players *Registry
	Turn    Turn
	Rules   Rules
	Clock   quartz.Clock
	Logger  *log.Logger
	// Bus receives engine events. A fresh bus is created when nil.
	Bus *SimpleEventBus
}

// Engine is the reducer and its state: roster, card ownership, turn
// pointer, pending prompts, auction and in-flight movement. It is not safe
// for concurrent use.
type Engine struct {
	logger *log.Logger
	clock  quartz.Clock
	rules  Rules
	bus    *SimpleEventBus

	layout   board.Layout
	players  *Registry
	owners   map[int]int
	turn     Turn
	purchase *Purchase
	penalty  *PenaltyDue
	auction  *Auction
	move     *movement
}

// NewEngine creates an engine over a dealt board and a seated roster.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Players == nil {
		cfg.Players = NewRegistry()
	}
	if cfg.Bus == nil {
		cfg.Bus = NewEventBus()
	}
	e := &Engine{
		logger:  cfg.Logger.WithPrefix("engine"),
		clock:   cfg.Clock,
		rules:   cfg.Rules,
		bus:     cfg.Bus,
		layout:  cfg.Layout,
		players: cfg.Players,
		owners:  make(map[int]int),
		turn:    cfg.Turn,
	}
	e.turn.Current = e.players.Resolve(e.turn.Current)
	if e.turn.Number == 0 {
		e.turn.Number = 1
	}
	e.seedOwners()
	return e
}

// seedOwners rebuilds the ownership map from bought cards so a resumed
// roster keeps its claims.
func (e *Engine) seedOwners() {
	for i, p := range e.players.players {
		for _, b := range p.Bought {
			if _, taken := e.owners[b.Position]; !taken {
				e.owners[b.Position] = i
			}
		}
	}
}

// Events returns the bus engine events are published on.
func (e *Engine) Events() EventBus {
	return e.bus
}

// Players exposes the roster.
func (e *Engine) Players() *Registry {
	return e.players
}

// Layout is the dealt board.
func (e *Engine) Layout() board.Layout {
	return e.layout
}

// Owner returns the player index owning pos.
func (e *Engine) Owner(pos int) (int, bool) {
	idx, ok := e.owners[board.Wrap(pos)]
	return idx, ok
}

// PendingPurchase is the open buy/decline prompt, if any.
func (e *Engine) PendingPurchase() (Purchase, bool) {
	if e.purchase == nil {
		return Purchase{}, false
	}
	return *e.purchase, true
}

// PendingPenalty is the open pay prompt, if any.
func (e *Engine) PendingPenalty() (PenaltyDue, bool) {
	if e.penalty == nil {
		return PenaltyDue{}, false
	}
	return *e.penalty, true
}

// Auction returns a copy of the open auction, if any.
func (e *Engine) Auction() (Auction, bool) {
	if e.auction == nil {
		return Auction{}, false
	}
	return e.auction.clone(), true
}

// Reset tears all state down to empty, as when leaving a room.
func (e *Engine) Reset() {
	e.players.Reset()
	e.layout = board.Layout{}
	e.owners = make(map[int]int)
	e.turn = Turn{Number: 1}
	e.clearPrompts()
	e.auction = nil
	e.move = nil
}

// DismissPurchase drops the buy prompt without buying.
func (e *Engine) DismissPurchase() {
	e.purchase = nil
}

func (e *Engine) clearPrompts() {
	e.purchase = nil
	e.penalty = nil
}

// resolve clamps a player index, logging when the sender's index did not
// fit the local roster.
func (e *Engine) resolve(requested int, op string) (int, *Player) {
	idx, p := e.players.At(requested)
	if p != nil && idx != requested {
		e.logger.Debug("clamped player index", "op", op, "requested", requested, "resolved", idx, "players", e.players.Len())
	}
	return idx, p
}

func (e *Engine) publish(ev GameEvent) {
	e.bus.Publish(ev)
}

func (e *Engine) now() stamp {
	return stamp{at: e.clock.Now()}
}

// Snapshot is a deep copy of the engine state for display or dumps.
type Snapshot struct {
	Players         []Player     `json:"players"`
	Owners          map[int]int  `json:"cardOwners"`
	Turn            Turn         `json:"turn"`
	Moving          bool         `json:"moving"`
	PendingPurchase *Purchase    `json:"pendingPurchase,omitempty"`
	PendingPenalty  *PenaltyDue  `json:"pendingPenalty,omitempty"`
	Auction         *Auction     `json:"auction,omitempty"`
	Layout          board.Layout `json:"layout"`
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Players: e.players.Snapshot(),
		Owners:  maps.Clone(e.owners),
		Turn:    e.turn,
		Moving:  e.move != nil,
		Layout:  e.layout,
	}
	if p, ok := e.PendingPurchase(); ok {
		s.PendingPurchase = &p
	}
	if p, ok := e.PendingPenalty(); ok {
		s.PendingPenalty = &p
	}
	if a, ok := e.Auction(); ok {
		s.Auction = &a
	}
	return s
}
